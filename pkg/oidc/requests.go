package oidc

import (
	"time"

	"github.com/tendant/simple-oidc/pkg/claims"
)

// AuthorizationRequest is an approved authorization request for which a code
// is to be issued. The caller has already authenticated the user.
type AuthorizationRequest struct {
	ClientID    string
	UserID      string
	RedirectURI string
	Scopes      []string
	Nonce       string
	// Claims is the parsed "claims" request parameter, if any.
	Claims    *claims.ClaimsRequest
	AuthTime  time.Time
	ACR       string
	SessionID string
}

// ExchangeRequest is an authorization_code grant at the token endpoint.
type ExchangeRequest struct {
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AMR lists the authentication methods used, for the amr claim.
	AMR []string
}

// RefreshRequest is a refresh_token grant. An empty Scopes keeps the scopes
// of the token being refreshed.
type RefreshRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// ClientCredentialsRequest is a client_credentials grant.
type ClientCredentialsRequest struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// PurgeResult counts the rows removed by RemoveExpired.
type PurgeResult struct {
	AuthCodes     int64
	AccessTokens  int64
	RefreshTokens int64
}
