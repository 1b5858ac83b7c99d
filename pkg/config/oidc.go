package config

import "time"

// OIDCConfig holds token lifetimes and claim translation settings.
type OIDCConfig struct {
	Issuer          string        `env:"OIDC_ISSUER" env-default:"http://localhost:4000"`
	AuthCodeTTL     time.Duration `env:"OIDC_AUTH_CODE_TTL" env-default:"10m"`
	AccessTokenTTL  time.Duration `env:"OIDC_ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTokenTTL time.Duration `env:"OIDC_REFRESH_TOKEN_TTL" env-default:"720h"`

	// UserIDAttribute is tried first when resolving the sub claim
	UserIDAttribute string `env:"OIDC_USER_ID_ATTRIBUTE" env-default:"uid"`

	// ClaimsFile is an optional YAML translation table and private scope list
	ClaimsFile string `env:"OIDC_CLAIMS_FILE" env-default:""`

	// ScopeClaimsInIDToken adds scope-driven claims to the ID token in
	// addition to the userinfo response
	ScopeClaimsInIDToken bool `env:"OIDC_SCOPE_CLAIMS_IN_ID_TOKEN" env-default:"true"`
}
