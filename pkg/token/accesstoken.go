package token

import (
	"time"

	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// AccessToken is an issued bearer token. UserID is empty for tokens issued to
// a client on its own behalf; AuthCodeID is empty when the token does not
// descend from an authorization code.
type AccessToken struct {
	lifecycle
	grant
	UserID          string
	AuthCodeID      string
	requestedClaims *claims.ClaimsRequest
}

// AccessTokenParams holds the data of a new access token. An empty ID is
// replaced by a random one.
type AccessTokenParams struct {
	ID              string
	ClientID        string
	UserID          string
	Scopes          []string
	AuthCodeID      string
	RequestedClaims *claims.ClaimsRequest
	ExpiresAt       time.Time
}

// AccessTokenState is the persisted form of an AccessToken.
type AccessTokenState struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"client_id"`
	UserID          *string `json:"user_id"`
	Scopes          string  `json:"scopes"`
	ExpiresAt       string  `json:"expires_at"`
	IsRevoked       int     `json:"is_revoked"`
	AuthCodeID      *string `json:"auth_code_id"`
	RequestedClaims *string `json:"requested_claims"`
}

func NewAccessToken(p AccessTokenParams) (*AccessToken, error) {
	if p.ClientID == "" {
		return nil, errors.ValidationError("access token requires a client")
	}
	if p.ExpiresAt.IsZero() {
		return nil, errors.ValidationError("access token requires an expiry")
	}
	lc, err := newLifecycle(p.ID, p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	t := &AccessToken{
		lifecycle:  lc,
		grant:      grant{ClientID: p.ClientID, scopes: utils.CopyStrings(p.Scopes)},
		UserID:     p.UserID,
		AuthCodeID: p.AuthCodeID,
	}
	if err := t.SetRequestedClaims(p.RequestedClaims); err != nil {
		return nil, err
	}
	return t, nil
}

// SetRequestedClaims stores a snapshot of req. Later changes to req do not
// affect the token. An empty request clears the snapshot.
func (t *AccessToken) SetRequestedClaims(req *claims.ClaimsRequest) error {
	snapshot, err := snapshotClaimsRequest(req)
	if err != nil {
		return err
	}
	t.requestedClaims = snapshot
	return nil
}

// RequestedClaims returns a copy of the snapshot taken at issuance.
func (t *AccessToken) RequestedClaims() *claims.ClaimsRequest {
	return t.requestedClaims.Clone()
}

// State serializes the token for persistence.
func (t *AccessToken) State() AccessTokenState {
	return AccessTokenState{
		ID:              t.ID,
		ClientID:        t.ClientID,
		UserID:          utils.StringPtr(t.UserID),
		Scopes:          utils.EncodeStrings(t.scopes),
		ExpiresAt:       utils.FormatTimestamp(t.ExpiresAt),
		IsRevoked:       utils.BoolToInt(t.revoked),
		AuthCodeID:      utils.StringPtr(t.AuthCodeID),
		RequestedClaims: encodeClaimsRequest(t.requestedClaims),
	}
}

// AccessTokenFromState rebuilds a token from its persisted form.
func AccessTokenFromState(s AccessTokenState) (*AccessToken, error) {
	lc, err := decodeLifecycle(KindAccessToken, s.ID, s.ExpiresAt, s.IsRevoked)
	if err != nil {
		return nil, err
	}
	g, err := decodeGrant(KindAccessToken, s.ClientID, s.Scopes)
	if err != nil {
		return nil, err
	}
	requested, err := decodeClaimsRequest(KindAccessToken, s.RequestedClaims)
	if err != nil {
		return nil, err
	}
	return &AccessToken{
		lifecycle:       lc,
		grant:           g,
		UserID:          utils.DerefString(s.UserID),
		AuthCodeID:      utils.DerefString(s.AuthCodeID),
		requestedClaims: requested,
	}, nil
}
