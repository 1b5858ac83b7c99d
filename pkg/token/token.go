package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// Entity kinds used in error details.
const (
	KindAuthCode     = "authorization_code"
	KindAccessToken  = "access_token"
	KindRefreshToken = "refresh_token"
)

// IDBytes is the number of random bytes in a generated identifier.
const IDBytes = 40

// lifecycle is the identifier, expiry and revocation flag shared by every
// code and token.
type lifecycle struct {
	ID        string
	ExpiresAt time.Time
	revoked   bool
}

// Revoke marks the entity revoked. Revoking twice is a no-op.
func (l *lifecycle) Revoke() {
	l.revoked = true
}

func (l *lifecycle) IsRevoked() bool {
	return l.revoked
}

// IsExpired reports whether the entity is no longer valid at now.
func (l *lifecycle) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// IsUsable reports whether the entity is neither revoked nor expired at now.
func (l *lifecycle) IsUsable(now time.Time) bool {
	return !l.revoked && !l.IsExpired(now)
}

func newLifecycle(id string, expiresAt time.Time) (lifecycle, error) {
	if id == "" {
		generated, err := utils.GenerateRandomHex(IDBytes)
		if err != nil {
			return lifecycle{}, err
		}
		id = generated
	}
	return lifecycle{ID: id, ExpiresAt: utils.TruncateSecond(expiresAt)}, nil
}

// grant is the client and scope set a code or access token was issued for.
type grant struct {
	ClientID string
	scopes   []string
}

// GetScopes returns a copy of the granted scopes.
func (g *grant) GetScopes() []string {
	return utils.CopyStrings(g.scopes)
}

// HasScope reports whether id was granted.
func (g *grant) HasScope(id string) bool {
	for _, s := range g.scopes {
		if s == id {
			return true
		}
	}
	return false
}

func decodeLifecycle(kind, id, expiresAt string, revoked int) (lifecycle, error) {
	if id == "" {
		return lifecycle{}, errors.StateError(kind, "id", nil)
	}
	exp, err := utils.ParseTimestamp(expiresAt)
	if err != nil {
		return lifecycle{}, errors.StateError(kind, "expires_at", err)
	}
	flag, err := utils.IntToBool(revoked)
	if err != nil {
		return lifecycle{}, errors.StateError(kind, "is_revoked", err)
	}
	return lifecycle{ID: id, ExpiresAt: exp, revoked: flag}, nil
}

func decodeGrant(kind, clientID, scopes string) (grant, error) {
	if clientID == "" {
		return grant{}, errors.StateError(kind, "client_id", nil)
	}
	list, err := utils.DecodeStrings(scopes)
	if err != nil {
		return grant{}, errors.StateError(kind, "scopes", err)
	}
	return grant{ClientID: clientID, scopes: list}, nil
}

// snapshotClaimsRequest copies req for storage on an entity. An empty request
// is stored as nil so it survives a state round-trip unchanged, and a request
// that cannot be encoded is rejected here rather than at persistence time.
func snapshotClaimsRequest(req *claims.ClaimsRequest) (*claims.ClaimsRequest, error) {
	if req.IsEmpty() {
		return nil, nil
	}
	if _, err := json.Marshal(req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidationFailed, "requested claims cannot be encoded")
	}
	return req.Clone(), nil
}

// encodeClaimsRequest expects a request that went through snapshotClaimsRequest
// or decodeClaimsRequest; both guarantee it encodes.
func encodeClaimsRequest(req *claims.ClaimsRequest) *string {
	if req.IsEmpty() {
		return nil
	}
	b, err := json.Marshal(req)
	if err != nil {
		panic(fmt.Sprintf("token: encode checked claims request: %v", err))
	}
	s := string(b)
	return &s
}

func decodeClaimsRequest(kind string, raw *string) (*claims.ClaimsRequest, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var req claims.ClaimsRequest
	if err := json.Unmarshal([]byte(*raw), &req); err != nil {
		return nil, errors.StateError(kind, "requested_claims", err)
	}
	return &req, nil
}

func formatOptionalTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := utils.FormatTimestamp(t)
	return &s
}

func parseOptionalTime(kind, field string, s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseTimestamp(*s)
	if err != nil {
		return time.Time{}, errors.StateError(kind, field, err)
	}
	return t, nil
}
