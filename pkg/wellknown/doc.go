// Package wellknown builds the OpenID Connect discovery document.
//
// The metadata advertises the scopes of a scope.Catalog and the claims a
// claims.Translator can produce, so the published document always matches the
// configured translation table:
//
//	catalog, translator, err := fileConfig.Build("uid")
//	meta := wellknown.NewProviderMetadata(wellknown.Config{
//		Issuer:           "https://op.example.com",
//		SigningAlgorithm: signer.Algorithm(),
//	}, catalog, translator)
//
// Endpoint paths default to /oauth2/authorize, /oauth2/token, /oauth2/userinfo
// and /oauth2/jwks under the issuer. Serving the document is left to the
// embedding HTTP layer; oidcctl discovery prints it.
package wellknown
