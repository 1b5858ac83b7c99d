// Package oidc runs the token lifecycle of an OpenID Connect provider.
//
// The package sits between the protocol endpoints and storage. It does not
// parse HTTP requests or validate authorization parameters; callers hand it
// already-authenticated requests and get back entities or token responses.
//
// # Overview
//
// Service provides:
//   - Authorization code issuance, bound to a client and redirect URI
//   - Code exchange with single-use enforcement and replay cascade
//   - Refresh token rotation with scope narrowing
//   - Client credentials tokens for confidential clients
//   - Token family revocation
//   - UserInfo claims for live access tokens
//   - Purging of expired codes and tokens
//
// # Basic Usage
//
//	catalog, translator, err := fileConfig.Build("uid")
//	signer := tokengenerator.NewRSASigner(privateKey, "key-1")
//	assembler := idtoken.NewAssembler("https://op.example.com", signer, translator)
//
//	service, err := oidc.NewService(
//		token.NewPostgresStore(pool),
//		clientRepository,
//		userRepository,
//		translator,
//		assembler,
//		oidc.WithCatalog(catalog),
//		oidc.WithCodeExpiration(10*time.Minute),
//		oidc.WithTokenExpiration(time.Hour),
//	)
//
// # Authorization Code Flow
//
// Step 1: after the user approved the request, issue a code
//
//	code, err := service.IssueAuthorizationCode(ctx, oidc.AuthorizationRequest{
//		ClientID:    "my-app",
//		UserID:      "alice",
//		RedirectURI: "https://app.com/callback",
//		Scopes:      scope.Split("openid profile email"),
//		Nonce:       nonce,
//		AuthTime:    loginTime,
//	})
//	// redirect to https://app.com/callback?code=<code.ID>&state=...
//
// Step 2: exchange the code at the token endpoint
//
//	resp, err := service.ExchangeAuthorizationCode(ctx, oidc.ExchangeRequest{
//		Code:         r.FormValue("code"),
//		ClientID:     clientID,
//		ClientSecret: clientSecret,
//		RedirectURI:  r.FormValue("redirect_uri"),
//	})
//	if err != nil {
//		// errors.OAuthErrorCode(err) gives invalid_grant, invalid_client, ...
//	}
//
// The code is consumed with an atomic check-and-set inside the transaction
// that stores the new tokens. Of several concurrent exchanges exactly one
// succeeds; the others fail with a REVOKED error. Any use of a spent code
// revokes every access and refresh token issued from it.
//
// # Refresh
//
//	resp, err := service.RefreshAccessToken(ctx, oidc.RefreshRequest{
//		RefreshToken: refreshToken,
//		ClientID:     clientID,
//		ClientSecret: clientSecret,
//		Scopes:       []string{"openid"}, // optional, may only narrow
//	})
//
// The old access token is revoked and a new pair is issued. The requested
// claims captured at authorization carry over unchanged. Reusing a spent
// refresh token revokes the whole family.
//
// # UserInfo
//
//	info, err := service.UserInfo(ctx, bearerToken)
//
// UserInfo returns the claims exposed by the token's scopes plus the claims
// individually requested for userinfo.
//
// # Maintenance
//
// RemoveExpired is meant for a scheduler (see oidcctl purge). Access tokens
// still referenced by an unexpired refresh token survive the purge.
package oidc
