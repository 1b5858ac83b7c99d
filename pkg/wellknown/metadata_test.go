package wellknown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/scope"
)

func TestNewProviderMetadata(t *testing.T) {
	catalog, err := scope.NewCatalog(scope.New("national", "National identity", "nat_document_id"))
	require.NoError(t, err)
	translator := claims.New(catalog, claims.DefaultTable())

	meta := NewProviderMetadata(Config{Issuer: "https://op.example.com/"}, catalog, translator)

	assert.Equal(t, "https://op.example.com/", meta.Issuer)
	assert.Equal(t, "https://op.example.com/oauth2/token", meta.TokenEndpoint)
	assert.Equal(t, "https://op.example.com/oauth2/jwks", meta.JwksURI)
	assert.Equal(t, []string{"RS256"}, meta.IDTokenSigningAlgValuesSupported)
	assert.Contains(t, meta.ScopesSupported, "openid")
	assert.Contains(t, meta.ScopesSupported, "national")
	assert.Contains(t, meta.ClaimsSupported, "sub")
	assert.Contains(t, meta.ClaimsSupported, "email")
	assert.True(t, meta.ClaimsParameterSupported)
}

func TestNewProviderMetadata_CustomLayout(t *testing.T) {
	catalog, err := scope.NewCatalog()
	require.NoError(t, err)

	meta := NewProviderMetadata(Config{
		Issuer:           "https://op.example.com",
		BaseURL:          "https://api.example.com/idm",
		SigningAlgorithm: "HS256",
		TokenPath:        "/token",
	}, catalog, claims.New(catalog, claims.DefaultTable()))

	assert.Equal(t, "https://api.example.com/idm/token", meta.TokenEndpoint)
	assert.Equal(t, "https://api.example.com/idm/oauth2/authorize", meta.AuthorizationEndpoint)
	assert.Equal(t, []string{"HS256"}, meta.IDTokenSigningAlgValuesSupported)
}
