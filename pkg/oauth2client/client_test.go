package oauth2client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/errors"
)

func newTestClient(id string, confidential bool) *Client {
	c := &Client{
		ID:           id,
		Name:         "Test " + id,
		RedirectURIs: []string{"https://rp.example.org/cb"},
		Scopes:       []string{"openid", "email"},
		Confidential: confidential,
		Enabled:      true,
	}
	if confidential {
		c.secret = "s3cret-" + id
	}
	return c
}

func TestClient_StateRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	minimal := &Client{ID: "public", Name: "Public", CreatedAt: ts, UpdatedAt: ts}
	full := &Client{
		ID:                     "rp",
		secret:                 "secret",
		Name:                   "Relying Party",
		Description:            "Full client",
		RedirectURIs:           []string{"https://rp/cb", "https://rp/cb2"},
		Scopes:                 []string{"openid", "profile"},
		Confidential:           true,
		Enabled:                true,
		AuthSource:             "saml",
		Owner:                  "team-a",
		PostLogoutRedirectURIs: []string{"https://rp/bye"},
		BackchannelLogoutURI:   "https://rp/bcl",
		CreatedAt:              ts,
		UpdatedAt:              ts.Add(time.Hour),
	}

	for name, c := range map[string]*Client{"minimal": minimal, "full": full} {
		t.Run(name, func(t *testing.T) {
			restored, err := FromState(c.State())
			require.NoError(t, err)

			assert.Equal(t, c.ID, restored.ID)
			assert.Equal(t, c.Secret(), restored.Secret())
			assert.Equal(t, c.Name, restored.Name)
			assert.Equal(t, c.Description, restored.Description)
			assert.ElementsMatch(t, c.RedirectURIs, restored.RedirectURIs)
			assert.ElementsMatch(t, c.Scopes, restored.Scopes)
			assert.Equal(t, c.Confidential, restored.Confidential)
			assert.Equal(t, c.Enabled, restored.Enabled)
			assert.Equal(t, c.AuthSource, restored.AuthSource)
			assert.Equal(t, c.Owner, restored.Owner)
			assert.ElementsMatch(t, c.PostLogoutRedirectURIs, restored.PostLogoutRedirectURIs)
			assert.Equal(t, c.BackchannelLogoutURI, restored.BackchannelLogoutURI)
			assert.True(t, c.CreatedAt.Equal(restored.CreatedAt))
			assert.True(t, c.UpdatedAt.Equal(restored.UpdatedAt))
		})
	}
}

func TestClient_StateEncoding(t *testing.T) {
	c := newTestClient("rp", true)
	s := c.State()

	assert.Equal(t, 1, s.IsConfidential)
	assert.Equal(t, 1, s.IsEnabled)
	assert.Equal(t, `["openid","email"]`, s.Scopes)
	assert.Equal(t, "[]", s.PostLogoutRedirectURI)
	assert.Nil(t, s.AuthSource)
	assert.Nil(t, s.BackchannelLogoutURI)
}

func TestFromState_Malformed(t *testing.T) {
	valid := newTestClient("rp", true).State()
	valid.CreatedAt = "2024-01-01 00:00:00"
	valid.UpdatedAt = "2024-01-01 00:00:00"

	tests := []struct {
		field string
		edit  func(s *ClientState)
	}{
		{"id", func(s *ClientState) { s.ID = "" }},
		{"name", func(s *ClientState) { s.Name = "" }},
		{"redirect_uri", func(s *ClientState) { s.RedirectURI = "https://not-json" }},
		{"scopes", func(s *ClientState) { s.Scopes = "" }},
		{"is_enabled", func(s *ClientState) { s.IsEnabled = 7 }},
		{"secret", func(s *ClientState) { s.Secret = "" }},
		{"created_at", func(s *ClientState) { s.CreatedAt = "2024-13-01 00:00:00" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s := valid
			tt.edit(&s)
			_, err := FromState(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidState))
			assert.Equal(t, tt.field, errors.GetDetails(err)["field"])
		})
	}
}

func TestClient_VerifySecret(t *testing.T) {
	c := newTestClient("rp", true)
	assert.True(t, c.VerifySecret("s3cret-rp"))
	assert.False(t, c.VerifySecret("s3cret-rP"))
	assert.False(t, c.VerifySecret(""))

	public := newTestClient("spa", false)
	assert.True(t, public.VerifySecret(""))
	assert.True(t, public.VerifySecret("anything"))
}

func TestClient_RestoreSecret(t *testing.T) {
	c := newTestClient("rp", true)
	c.UpdatedAt = time.Now().Add(-time.Hour)

	c.RestoreSecret("rotated")
	assert.Equal(t, "rp", c.ID)
	assert.True(t, c.VerifySecret("rotated"))
	assert.False(t, c.VerifySecret("s3cret-rp"))
	assert.WithinDuration(t, time.Now(), c.UpdatedAt, 2*time.Second)
}

func TestClient_IsRedirectURIAllowed(t *testing.T) {
	c := newTestClient("rp", false)
	assert.True(t, c.IsRedirectURIAllowed("https://rp.example.org/cb"))
	assert.False(t, c.IsRedirectURIAllowed("https://rp.example.org/cb/"))
	assert.False(t, c.IsRedirectURIAllowed("https://rp.example.org/cb?x=1"))
}

func TestClient_IsUsableFor(t *testing.T) {
	public := newTestClient("spa", false)
	assert.True(t, public.IsUsableFor(GrantAuthorizationCode))
	assert.False(t, public.IsUsableFor(GrantClientCredentials))

	confidential := newTestClient("rp", true)
	assert.True(t, confidential.IsUsableFor(GrantClientCredentials))
	confidential.Enabled = false
	assert.False(t, confidential.IsUsableFor(GrantAuthorizationCode))
}

func TestClient_Validate(t *testing.T) {
	c := newTestClient("rp", true)
	require.NoError(t, c.Validate())

	c.secret = ""
	assert.True(t, errors.IsCode(c.Validate(), errors.ErrCodeValidationFailed))
}
