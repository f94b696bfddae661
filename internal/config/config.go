package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	Version        string        `envconfig:"VERSION" default:"dev"`
	Environment    string        `envconfig:"ENVIRONMENT" default:"development"`
	QueryStaleTime time.Duration `envconfig:"QUERY_STALE_TIME" default:"5m"`
	SessionCookie  string        `envconfig:"SESSION_COOKIE" default:"retrospecs_session"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`

	OIDCIssuerURL    string `envconfig:"OIDC_ISSUER_URL"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `envconfig:"OIDC_REDIRECT_URL"`

	// RedisURL enables the realtime change feed when set.
	RedisURL string `envconfig:"REDIS_URL"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether the service runs in production.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// OIDCEnabled reports whether an identity provider is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuerURL != "" && c.OIDCClientID != ""
}
