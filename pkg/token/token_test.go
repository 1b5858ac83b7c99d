package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/errors"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCode(t *testing.T, id string, expiresAt time.Time) *AuthorizationCode {
	t.Helper()
	req, err := claims.ParseClaimsRequest(`{"userinfo": {"email": null}}`)
	require.NoError(t, err)
	code, err := NewAuthorizationCode(AuthorizationCodeParams{
		ID:              id,
		ClientID:        "client-1",
		UserID:          "alice",
		Scopes:          []string{"openid", "email"},
		RedirectURI:     "https://app.example.org/cb",
		Nonce:           "n-1",
		RequestedClaims: req,
		AuthTime:        testNow.Add(-time.Minute),
		ACR:             "urn:acr:pwd",
		ExpiresAt:       expiresAt,
	})
	require.NoError(t, err)
	return code
}

func TestNewAuthorizationCode(t *testing.T) {
	code := newTestCode(t, "", testNow.Add(10*time.Minute))
	assert.Len(t, code.ID, IDBytes*2)
	assert.False(t, code.IsRevoked())
	assert.True(t, code.IsUsable(testNow))
	assert.True(t, code.HasScope("email"))

	_, err := NewAuthorizationCode(AuthorizationCodeParams{ClientID: "c", UserID: "u", ExpiresAt: testNow})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestLifecycle_RevokeIsIdempotent(t *testing.T) {
	code := newTestCode(t, "c1", testNow.Add(time.Minute))
	code.Revoke()
	code.Revoke()
	assert.True(t, code.IsRevoked())
	assert.False(t, code.IsUsable(testNow))
}

func TestLifecycle_IsExpired(t *testing.T) {
	code := newTestCode(t, "c1", testNow)
	assert.True(t, code.IsExpired(testNow))
	assert.False(t, code.IsExpired(testNow.Add(-time.Second)))
}

func TestGetScopesReturnsCopy(t *testing.T) {
	code := newTestCode(t, "c1", testNow.Add(time.Minute))
	scopes := code.GetScopes()
	scopes[0] = "admin"
	assert.Equal(t, []string{"openid", "email"}, code.GetScopes())
}

func TestAuthCodeState_RoundTrip(t *testing.T) {
	code := newTestCode(t, "c1", testNow.Add(time.Minute))
	code.Revoke()

	s := code.State()
	assert.Equal(t, "2024-05-01 12:01:00", s.ExpiresAt)
	assert.Equal(t, 1, s.IsRevoked)
	assert.Equal(t, `["openid","email"]`, s.Scopes)
	require.NotNil(t, s.RequestedClaims)
	assert.JSONEq(t, `{"userinfo": {"email": null}}`, *s.RequestedClaims)
	assert.Nil(t, s.SessionID)

	restored, err := AuthCodeFromState(s)
	require.NoError(t, err)
	assert.Equal(t, code, restored)
}

func TestAuthCodeFromState_Malformed(t *testing.T) {
	base := newTestCode(t, "c1", testNow.Add(time.Minute)).State()
	bad := "not-a-date"

	tests := []struct {
		name  string
		field string
		edit  func(s *AuthCodeState)
	}{
		{"missing id", "id", func(s *AuthCodeState) { s.ID = "" }},
		{"bad expiry", "expires_at", func(s *AuthCodeState) { s.ExpiresAt = "tomorrow" }},
		{"bad flag", "is_revoked", func(s *AuthCodeState) { s.IsRevoked = 2 }},
		{"missing client", "client_id", func(s *AuthCodeState) { s.ClientID = "" }},
		{"bad scopes", "scopes", func(s *AuthCodeState) { s.Scopes = "openid" }},
		{"missing user", "user_id", func(s *AuthCodeState) { s.UserID = "" }},
		{"bad auth_time", "auth_time", func(s *AuthCodeState) { s.AuthTime = &bad }},
		{"bad claims", "requested_claims", func(s *AuthCodeState) { s.RequestedClaims = &bad }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.edit(&s)
			_, err := AuthCodeFromState(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidState))
			assert.Equal(t, tt.field, errors.GetDetails(err)["field"])
			assert.Equal(t, KindAuthCode, errors.GetDetails(err)["kind"])
		})
	}
}

func TestAccessToken_RequestedClaimsSnapshot(t *testing.T) {
	req, err := claims.ParseClaimsRequest(`{"userinfo": {"email": {"essential": true}}}`)
	require.NoError(t, err)

	at, err := NewAccessToken(AccessTokenParams{
		ClientID:        "client-1",
		UserID:          "alice",
		Scopes:          []string{"openid"},
		RequestedClaims: req,
		ExpiresAt:       testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	req.UserInfo["phone_number"] = nil
	assert.NotContains(t, at.RequestedClaims().UserInfo, "phone_number")

	got := at.RequestedClaims()
	got.UserInfo["address"] = nil
	assert.NotContains(t, at.RequestedClaims().UserInfo, "address")
}

func TestAccessTokenState_Nullable(t *testing.T) {
	at, err := NewAccessToken(AccessTokenParams{
		ID:        "at-1",
		ClientID:  "client-1",
		Scopes:    []string{"api"},
		ExpiresAt: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	s := at.State()
	assert.Nil(t, s.UserID)
	assert.Nil(t, s.AuthCodeID)
	assert.Nil(t, s.RequestedClaims)

	restored, err := AccessTokenFromState(s)
	require.NoError(t, err)
	assert.Equal(t, "", restored.UserID)
	assert.Nil(t, restored.RequestedClaims())
}

func newPopulatedAccessToken(t *testing.T) *AccessToken {
	t.Helper()
	req, err := claims.ParseClaimsRequest(`{"userinfo": {"email": {"essential": true}}, "id_token": {"acr": {"values": ["urn:a"]}}}`)
	require.NoError(t, err)
	at, err := NewAccessToken(AccessTokenParams{
		ID:              "at-1",
		ClientID:        "client-1",
		UserID:          "alice",
		Scopes:          []string{"openid", "email"},
		AuthCodeID:      "code-1",
		RequestedClaims: req,
		ExpiresAt:       testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	return at
}

func TestAccessTokenState_RoundTrip(t *testing.T) {
	at := newPopulatedAccessToken(t)
	at.Revoke()

	s := at.State()
	assert.Equal(t, "2024-05-01 13:00:00", s.ExpiresAt)
	assert.Equal(t, 1, s.IsRevoked)
	assert.Equal(t, `["openid","email"]`, s.Scopes)
	require.NotNil(t, s.UserID)
	assert.Equal(t, "alice", *s.UserID)
	require.NotNil(t, s.AuthCodeID)
	assert.Equal(t, "code-1", *s.AuthCodeID)
	require.NotNil(t, s.RequestedClaims)

	restored, err := AccessTokenFromState(s)
	require.NoError(t, err)
	assert.Equal(t, at, restored)
	assert.True(t, restored.IsRevoked())
	assert.True(t, restored.RequestedClaims().UserInfo["email"].Essential)
}

func TestAccessTokenFromState_Malformed(t *testing.T) {
	base := newPopulatedAccessToken(t).State()
	bad := "{not json"

	tests := []struct {
		name  string
		field string
		edit  func(s *AccessTokenState)
	}{
		{"missing id", "id", func(s *AccessTokenState) { s.ID = "" }},
		{"missing client", "client_id", func(s *AccessTokenState) { s.ClientID = "" }},
		{"bad scopes", "scopes", func(s *AccessTokenState) { s.Scopes = "openid" }},
		{"bad expiry", "expires_at", func(s *AccessTokenState) { s.ExpiresAt = "2024-13-45" }},
		{"bad flag", "is_revoked", func(s *AccessTokenState) { s.IsRevoked = -1 }},
		{"bad claims", "requested_claims", func(s *AccessTokenState) { s.RequestedClaims = &bad }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.edit(&s)
			_, err := AccessTokenFromState(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidState))
			assert.Equal(t, tt.field, errors.GetDetails(err)["field"])
			assert.Equal(t, KindAccessToken, errors.GetDetails(err)["kind"])
		})
	}
}

func TestEmptyClaimsRequestIsNormalized(t *testing.T) {
	empty, err := claims.ParseClaimsRequest(`{"id_token": {}}`)
	require.NoError(t, err)
	require.NotNil(t, empty)

	code, err := NewAuthorizationCode(AuthorizationCodeParams{
		ClientID:        "client-1",
		UserID:          "alice",
		RedirectURI:     "https://app.example.org/cb",
		RequestedClaims: empty,
		ExpiresAt:       testNow.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Nil(t, code.RequestedClaims())

	restored, err := AuthCodeFromState(code.State())
	require.NoError(t, err)
	assert.Equal(t, code, restored)

	at, err := NewAccessToken(AccessTokenParams{
		ClientID:        "client-1",
		RequestedClaims: empty,
		ExpiresAt:       testNow.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Nil(t, at.RequestedClaims())
}

func TestUnencodableClaimsRequestIsRejected(t *testing.T) {
	req := &claims.ClaimsRequest{
		UserInfo: map[string]*claims.ClaimOptions{"email": {Value: make(chan int)}},
	}

	_, err := NewAuthorizationCode(AuthorizationCodeParams{
		ClientID:        "client-1",
		UserID:          "alice",
		RedirectURI:     "https://app.example.org/cb",
		RequestedClaims: req,
		ExpiresAt:       testNow.Add(time.Minute),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	_, err = NewAccessToken(AccessTokenParams{
		ClientID:        "client-1",
		RequestedClaims: req,
		ExpiresAt:       testNow.Add(time.Minute),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	at := newPopulatedAccessToken(t)
	assert.Error(t, at.SetRequestedClaims(req))
	assert.NotNil(t, at.RequestedClaims())
}

func TestRefreshTokenState_RoundTrip(t *testing.T) {
	rt, err := NewRefreshToken("", "at-1", "code-1", testNow.Add(time.Hour))
	require.NoError(t, err)

	restored, err := RefreshTokenFromState(rt.State())
	require.NoError(t, err)
	assert.Equal(t, rt, restored)

	s := rt.State()
	s.AccessTokenID = ""
	_, err = RefreshTokenFromState(s)
	assert.Equal(t, "access_token_id", errors.GetDetails(err)["field"])

	_, err = NewRefreshToken("", "", "", testNow)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}
