package config

// JWKSConfig locates the RSA key that signs access and ID tokens.
type JWKSConfig struct {
	// KeyID is the kid header of signed tokens. Empty derives it from the
	// RFC 7638 thumbprint of the key.
	KeyID string `env:"JWKS_KEY_ID" env-default:""`

	// PrivateKeyFile is a PKCS#1 or PKCS#8 PEM file
	PrivateKeyFile string `env:"JWKS_PRIVATE_KEY_FILE" env-default:"jwt-private.pem"`
}

// IsConfigured reports whether a key file path is set.
func (c *JWKSConfig) IsConfigured() bool {
	return c.PrivateKeyFile != ""
}
