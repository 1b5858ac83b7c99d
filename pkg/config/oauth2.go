package config

// OAuth2ClientConfig contains OAuth2 client encryption settings.
type OAuth2ClientConfig struct {
	// EncryptionKey is the passphrase client secrets are encrypted with at rest.
	EncryptionKey string `env:"OAUTH2_CLIENT_ENCRYPTION_KEY" env-default:""`
}

// IsConfigured returns true if the encryption key is set
func (c *OAuth2ClientConfig) IsConfigured() bool {
	return c.EncryptionKey != ""
}

// RedisConfig points the revocation cache at a Redis server. An empty URL
// keeps the cache in process memory.
type RedisConfig struct {
	URL string `env:"OIDC_REDIS_URL" env-default:""`
}

// IsConfigured returns true if a Redis URL is set
func (c *RedisConfig) IsConfigured() bool {
	return c.URL != ""
}
