package token

import (
	"time"

	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// AuthorizationCode is a single-use grant handed to a client after the user
// approved an authorization request. Besides the grant it carries the
// authorization-time context the token endpoint needs for the ID token.
type AuthorizationCode struct {
	lifecycle
	grant
	UserID          string
	RedirectURI     string
	Nonce           string
	AuthTime        time.Time
	ACR             string
	SessionID       string
	requestedClaims *claims.ClaimsRequest
}

// AuthorizationCodeParams holds the data of a new authorization code. An empty
// ID is replaced by a random one.
type AuthorizationCodeParams struct {
	ID              string
	ClientID        string
	UserID          string
	Scopes          []string
	RedirectURI     string
	Nonce           string
	RequestedClaims *claims.ClaimsRequest
	AuthTime        time.Time
	ACR             string
	SessionID       string
	ExpiresAt       time.Time
}

// AuthCodeState is the persisted form of an AuthorizationCode.
type AuthCodeState struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"client_id"`
	UserID          string  `json:"user_id"`
	Scopes          string  `json:"scopes"`
	RedirectURI     string  `json:"redirect_uri"`
	Nonce           *string `json:"nonce"`
	RequestedClaims *string `json:"requested_claims"`
	AuthTime        *string `json:"auth_time"`
	ACR             *string `json:"acr"`
	SessionID       *string `json:"session_id"`
	ExpiresAt       string  `json:"expires_at"`
	IsRevoked       int     `json:"is_revoked"`
}

func NewAuthorizationCode(p AuthorizationCodeParams) (*AuthorizationCode, error) {
	if p.ClientID == "" {
		return nil, errors.ValidationError("authorization code requires a client")
	}
	if p.UserID == "" {
		return nil, errors.ValidationError("authorization code requires a user")
	}
	if p.RedirectURI == "" {
		return nil, errors.ValidationError("authorization code requires a redirect URI")
	}
	if p.ExpiresAt.IsZero() {
		return nil, errors.ValidationError("authorization code requires an expiry")
	}

	lc, err := newLifecycle(p.ID, p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	requested, err := snapshotClaimsRequest(p.RequestedClaims)
	if err != nil {
		return nil, err
	}
	authTime := p.AuthTime
	if !authTime.IsZero() {
		authTime = utils.TruncateSecond(authTime)
	}
	return &AuthorizationCode{
		lifecycle:       lc,
		grant:           grant{ClientID: p.ClientID, scopes: utils.CopyStrings(p.Scopes)},
		UserID:          p.UserID,
		RedirectURI:     p.RedirectURI,
		Nonce:           p.Nonce,
		AuthTime:        authTime,
		ACR:             p.ACR,
		SessionID:       p.SessionID,
		requestedClaims: requested,
	}, nil
}

// RequestedClaims returns a copy of the claims request made at authorization.
func (c *AuthorizationCode) RequestedClaims() *claims.ClaimsRequest {
	return c.requestedClaims.Clone()
}

// State serializes the code for persistence.
func (c *AuthorizationCode) State() AuthCodeState {
	return AuthCodeState{
		ID:              c.ID,
		ClientID:        c.ClientID,
		UserID:          c.UserID,
		Scopes:          utils.EncodeStrings(c.scopes),
		RedirectURI:     c.RedirectURI,
		Nonce:           utils.StringPtr(c.Nonce),
		RequestedClaims: encodeClaimsRequest(c.requestedClaims),
		AuthTime:        formatOptionalTime(c.AuthTime),
		ACR:             utils.StringPtr(c.ACR),
		SessionID:       utils.StringPtr(c.SessionID),
		ExpiresAt:       utils.FormatTimestamp(c.ExpiresAt),
		IsRevoked:       utils.BoolToInt(c.revoked),
	}
}

// AuthCodeFromState rebuilds a code from its persisted form.
func AuthCodeFromState(s AuthCodeState) (*AuthorizationCode, error) {
	lc, err := decodeLifecycle(KindAuthCode, s.ID, s.ExpiresAt, s.IsRevoked)
	if err != nil {
		return nil, err
	}
	g, err := decodeGrant(KindAuthCode, s.ClientID, s.Scopes)
	if err != nil {
		return nil, err
	}
	if s.UserID == "" {
		return nil, errors.StateError(KindAuthCode, "user_id", nil)
	}
	if s.RedirectURI == "" {
		return nil, errors.StateError(KindAuthCode, "redirect_uri", nil)
	}
	requested, err := decodeClaimsRequest(KindAuthCode, s.RequestedClaims)
	if err != nil {
		return nil, err
	}
	authTime, err := parseOptionalTime(KindAuthCode, "auth_time", s.AuthTime)
	if err != nil {
		return nil, err
	}

	return &AuthorizationCode{
		lifecycle:       lc,
		grant:           g,
		UserID:          s.UserID,
		RedirectURI:     s.RedirectURI,
		Nonce:           utils.DerefString(s.Nonce),
		AuthTime:        authTime,
		ACR:             utils.DerefString(s.ACR),
		SessionID:       utils.DerefString(s.SessionID),
		requestedClaims: requested,
	}, nil
}
