package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("auth_code", "abc")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, "auth_code", GetDetails(err)["kind"])
	assert.Equal(t, "abc", GetDetails(err)["id"])
	assert.Equal(t, http.StatusNotFound, err.HTTPStatusCode())
}

func TestWrappedCodesSurviveFmtWrapping(t *testing.T) {
	inner := RevocationConflict("refresh_token", "r1")
	wrapped := fmt.Errorf("refresh failed: %w", inner)

	assert.True(t, IsRevoked(wrapped))
	assert.Equal(t, ErrCodeRevoked, GetCode(wrapped))
	assert.Equal(t, OAuthInvalidGrant, OAuthErrorCode(wrapped))
}

func TestStateErrorUnwraps(t *testing.T) {
	cause := errors.New("bad timestamp")
	err := StateError("access_token", "expires_at", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "expires_at")
	assert.Equal(t, ErrCodeInvalidState, GetCode(err))
}

func TestOAuthErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NotFound("auth_code", "x"), OAuthInvalidGrant},
		{"revoked", RevocationConflict("auth_code", "x"), OAuthInvalidGrant},
		{"invalid client", InvalidClient("c"), OAuthInvalidClient},
		{"validation", ValidationError("disabled"), OAuthAccessDenied},
		{"translation", TranslationError("updated_at", "int", "abc", nil), OAuthServerError},
		{"plain", errors.New("boom"), OAuthServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OAuthErrorCode(tt.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "x %d", 1))
}
