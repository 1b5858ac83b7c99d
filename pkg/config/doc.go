// Package config loads the runtime configuration of simple-oidc.
//
// Configuration comes from environment variables, optionally seeded from a
// .env file:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//		return err
//	}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// # Environment Variables
//
//	IDM_PG_HOST, IDM_PG_PORT, IDM_PG_DATABASE    PostgreSQL connection
//	IDM_PG_USER, IDM_PG_PASSWORD, IDM_PG_SCHEMA
//	OIDC_ISSUER                                  iss claim of signed tokens
//	OIDC_AUTH_CODE_TTL                           default 10m
//	OIDC_ACCESS_TOKEN_TTL                        default 1h
//	OIDC_REFRESH_TOKEN_TTL                       default 720h
//	OIDC_USER_ID_ATTRIBUTE                       attribute tried first for sub (uid)
//	OIDC_CLAIMS_FILE                             YAML translation table
//	OIDC_SCOPE_CLAIMS_IN_ID_TOKEN                default true
//	JWKS_KEY_ID, JWKS_PRIVATE_KEY_FILE           signing key
//	OAUTH2_CLIENT_ENCRYPTION_KEY                 client secret encryption passphrase
//	OIDC_REDIS_URL                               revocation cache (empty: in memory)
//
// # Validation
//
// Validate reports every invalid setting at once as ValidationErrors, each
// entry naming the environment variable at fault. Unset optional settings
// (encryption key, Redis URL) are not checked.
package config
