package app

import (
	"strings"

	"github.com/veriauth/veriauth/internal/database"
)

// DatabaseServiceConfig converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) DatabaseServiceConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch strings.ToLower(c.Driver) {
	case "postgres":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.Database = c.Postgres.Database
		cfg.Username = c.Postgres.Username
		cfg.Password = c.Postgres.Password
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.Database = c.MySQL.Database
		cfg.Username = c.MySQL.Username
		cfg.Password = c.MySQL.Password
	}

	return cfg
}
