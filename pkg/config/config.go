package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration.
type Config struct {
	Database     DatabaseConfig
	OIDC         OIDCConfig
	JWKS         JWKSConfig
	OAuth2Client OAuth2ClientConfig
	Redis        RedisConfig
}

// Load reads envFile (when it exists) into the process environment and then
// populates Config from the environment. An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			slog.Info("Loading configuration from .env file", "path", envFile)
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		} else {
			slog.Debug("No .env file found (using environment variables or defaults)", "path", envFile)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every command depends on and reports all
// problems as ValidationErrors.
func (c *Config) Validate() error {
	var ck checker

	ck.required("OIDC_ISSUER", c.OIDC.Issuer)
	ck.absoluteURL("OIDC_ISSUER", c.OIDC.Issuer, "https", "http")
	ck.positive("OIDC_AUTH_CODE_TTL", c.OIDC.AuthCodeTTL)
	ck.positive("OIDC_ACCESS_TOKEN_TTL", c.OIDC.AccessTokenTTL)
	ck.positive("OIDC_REFRESH_TOKEN_TTL", c.OIDC.RefreshTokenTTL)
	ck.required("OIDC_USER_ID_ATTRIBUTE", c.OIDC.UserIDAttribute)
	ck.port("IDM_PG_PORT", c.Database.Port)
	ck.minLength("OAUTH2_CLIENT_ENCRYPTION_KEY", c.OAuth2Client.EncryptionKey, 16)
	ck.absoluteURL("OIDC_REDIS_URL", c.Redis.URL, "redis", "rediss")

	return ck.err()
}
