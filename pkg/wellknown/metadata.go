package wellknown

import (
	"strings"

	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/scope"
)

// ProviderMetadata is the OpenID Provider Metadata document served at
// /.well-known/openid-configuration.
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`

	ScopesSupported                   []string `json:"scopes_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsParameterSupported          bool     `json:"claims_parameter_supported"`
}

// Config holds the endpoint layout of the provider.
type Config struct {
	// Issuer is the iss value of every token
	Issuer string

	// BaseURL prefixes the endpoint paths. Defaults to Issuer.
	BaseURL string

	// SigningAlgorithm is the alg of ID tokens, e.g. "RS256"
	SigningAlgorithm string

	AuthorizationPath string
	TokenPath         string
	UserInfoPath      string
	JwksPath          string
}

func (c Config) endpoint(path, fallback string) string {
	base := c.BaseURL
	if base == "" {
		base = c.Issuer
	}
	if path == "" {
		path = fallback
	}
	return strings.TrimRight(base, "/") + path
}

// NewProviderMetadata describes the provider. Scopes come from the catalog in
// catalog order; claims are every top-level claim the translator can produce.
func NewProviderMetadata(config Config, catalog *scope.Catalog, translator *claims.Translator) *ProviderMetadata {
	alg := config.SigningAlgorithm
	if alg == "" {
		alg = "RS256"
	}

	return &ProviderMetadata{
		Issuer:                            config.Issuer,
		AuthorizationEndpoint:             config.endpoint(config.AuthorizationPath, "/oauth2/authorize"),
		TokenEndpoint:                     config.endpoint(config.TokenPath, "/oauth2/token"),
		UserInfoEndpoint:                  config.endpoint(config.UserInfoPath, "/oauth2/userinfo"),
		JwksURI:                           config.endpoint(config.JwksPath, "/oauth2/jwks"),
		ScopesSupported:                   scope.IDs(catalog.All()),
		ClaimsSupported:                   claimNames(translator.Table()),
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token", "client_credentials"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{alg},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "client_secret_basic"},
		ClaimsParameterSupported:          true,
	}
}

func claimNames(table claims.Table) []string {
	names := make([]string, 0, len(table))
	for _, e := range table {
		names = append(names, e.Claim)
	}
	return names
}
