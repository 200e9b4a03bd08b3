package app

import (
	"github.com/veriauth/veriauth/internal/auth"
	"github.com/veriauth/veriauth/internal/pending"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// PendingManagerOptions converts AuthConfig into pending.Manager options.
func (c AuthConfig) PendingManagerOptions() []pending.Option {
	opts := make([]pending.Option, 0, 2)
	if c.Tokens.TTL > 0 {
		opts = append(opts, pending.WithTTL(c.Tokens.TTL))
	}
	if c.Tokens.Length > 0 {
		opts = append(opts, pending.WithTokenLength(c.Tokens.Length))
	}
	return opts
}
