package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veriauth/veriauth/internal/app"
	"github.com/veriauth/veriauth/internal/auth"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:5000", cfg.Server.ExternalURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "veriauth", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.SessionTTL)
	require.Equal(t, time.Hour, cfg.Auth.Tokens.TTL)
	require.Equal(t, 48, cfg.Auth.Tokens.Length)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
server:
  port: 8080
  external_url: https://auth.example.com
auth:
  jwt:
    secret: file-secret
    session_ttl: 12h
  tokens:
    ttl: 30m
email:
  smtp:
    enabled: true
    host: smtp.example.com
    port: 465
    use_tls: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))

	cfg, err := app.LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://auth.example.com", cfg.Server.ExternalURL)
	require.Equal(t, "file-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.SessionTTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.Tokens.TTL)
	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VERIAUTH_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("VERIAUTH_SERVER_PORT", "9090")

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestConfigValidate(t *testing.T) {
	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	// No JWT secret configured.
	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.Server.ExternalURL = ""
	require.Error(t, cfg.Validate())
}

func TestJWTServiceConfigDefaultsTTL(t *testing.T) {
	var cfg app.AuthConfig
	cfg.JWT.Secret = "secret"

	svcCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultSessionTTL, svcCfg.SessionTTL)
}

func TestPendingManagerOptions(t *testing.T) {
	var cfg app.AuthConfig
	require.Empty(t, cfg.PendingManagerOptions())

	cfg.Tokens.TTL = 30 * time.Minute
	cfg.Tokens.Length = 32
	require.Len(t, cfg.PendingManagerOptions(), 2)
}
