package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/errors"
)

func TestUser_StateRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string][]string
	}{
		{"minimal", nil},
		{"full", map[string][]string{"uid": {"u1"}, "mail": {"a@x", "b@x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New("u1", tt.claims)
			require.NoError(t, err)

			restored, err := FromState(u.State())
			require.NoError(t, err)
			assert.Equal(t, u.ID, restored.ID)
			assert.True(t, u.CreatedAt.Equal(restored.CreatedAt))
			assert.True(t, u.UpdatedAt.Equal(restored.UpdatedAt))
			if tt.claims == nil {
				assert.Empty(t, restored.Claims())
			} else {
				assert.Equal(t, tt.claims, restored.Claims())
			}
		})
	}
}

func TestUser_SetClaimsBumpsUpdatedAt(t *testing.T) {
	u, err := New("u1", map[string][]string{"uid": {"u1"}})
	require.NoError(t, err)
	u.UpdatedAt = u.UpdatedAt.Add(-time.Hour)
	before := u.UpdatedAt

	u.SetClaims(map[string][]string{"uid": {"u1"}, "cn": {"One"}})
	assert.True(t, u.UpdatedAt.After(before))
	assert.Equal(t, []string{"One"}, u.Claims()["cn"])
}

func TestUser_ClaimsAreCopied(t *testing.T) {
	src := map[string][]string{"uid": {"u1"}}
	u, err := New("u1", src)
	require.NoError(t, err)

	src["uid"][0] = "changed"
	got := u.Claims()
	got["uid"][0] = "changed too"
	assert.Equal(t, []string{"u1"}, u.Claims()["uid"])
}

func TestNew_RequiresID(t *testing.T) {
	_, err := New("", nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestFromState_Malformed(t *testing.T) {
	valid := State{ID: "u1", Claims: "{}", CreatedAt: "2024-01-01 00:00:00", UpdatedAt: "2024-01-01 00:00:00"}

	tests := []struct {
		name  string
		field string
		edit  func(s *State)
	}{
		{"missing id", "id", func(s *State) { s.ID = "" }},
		{"bad claims", "claims", func(s *State) { s.Claims = "[1,2]" }},
		{"null claims", "claims", func(s *State) { s.Claims = "null" }},
		{"bad created_at", "created_at", func(s *State) { s.CreatedAt = "yesterday" }},
		{"missing updated_at", "updated_at", func(s *State) { s.UpdatedAt = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.edit(&s)
			_, err := FromState(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidState))
			assert.Equal(t, tt.field, errors.GetDetails(err)["field"])
		})
	}
}
