package token

import (
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// RefreshToken renews an AccessToken. Revoking the access token leaves the
// refresh token valid.
type RefreshToken struct {
	lifecycle
	AccessTokenID string
	AuthCodeID    string
}

// RefreshTokenState is the persisted form of a RefreshToken.
type RefreshTokenState struct {
	ID            string  `json:"id"`
	AccessTokenID string  `json:"access_token_id"`
	AuthCodeID    *string `json:"auth_code_id"`
	ExpiresAt     string  `json:"expires_at"`
	IsRevoked     int     `json:"is_revoked"`
}

// NewRefreshToken creates a refresh token for accessTokenID. An empty id is
// replaced by a random one.
func NewRefreshToken(id, accessTokenID, authCodeID string, expiresAt time.Time) (*RefreshToken, error) {
	if accessTokenID == "" {
		return nil, errors.ValidationError("refresh token requires an access token")
	}
	if expiresAt.IsZero() {
		return nil, errors.ValidationError("refresh token requires an expiry")
	}
	lc, err := newLifecycle(id, expiresAt)
	if err != nil {
		return nil, err
	}
	return &RefreshToken{lifecycle: lc, AccessTokenID: accessTokenID, AuthCodeID: authCodeID}, nil
}

func (t *RefreshToken) State() RefreshTokenState {
	return RefreshTokenState{
		ID:            t.ID,
		AccessTokenID: t.AccessTokenID,
		AuthCodeID:    utils.StringPtr(t.AuthCodeID),
		ExpiresAt:     utils.FormatTimestamp(t.ExpiresAt),
		IsRevoked:     utils.BoolToInt(t.revoked),
	}
}

func RefreshTokenFromState(s RefreshTokenState) (*RefreshToken, error) {
	lc, err := decodeLifecycle(KindRefreshToken, s.ID, s.ExpiresAt, s.IsRevoked)
	if err != nil {
		return nil, err
	}
	if s.AccessTokenID == "" {
		return nil, errors.StateError(KindRefreshToken, "access_token_id", nil)
	}
	return &RefreshToken{
		lifecycle:     lc,
		AccessTokenID: s.AccessTokenID,
		AuthCodeID:    utils.DerefString(s.AuthCodeID),
	}, nil
}
