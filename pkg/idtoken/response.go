package idtoken

import (
	"context"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/scope"
	"github.com/tendant/simple-oidc/pkg/token"
	"github.com/tendant/simple-oidc/pkg/user"
)

// TokenResponse is the token endpoint response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// UserProvider looks up the user an access token was issued to.
type UserProvider interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// ResponseBuilder turns issued tokens into a TokenResponse.
type ResponseBuilder struct {
	assembler *Assembler
	users     UserProvider
}

func NewResponseBuilder(assembler *Assembler, users UserProvider) *ResponseBuilder {
	return &ResponseBuilder{assembler: assembler, users: users}
}

// Build signs the access token and adds the refresh token when present. An
// ID token is added only when openid was granted; it then requires a user.
func (b *ResponseBuilder) Build(ctx context.Context, at *token.AccessToken, rt *token.RefreshToken, p Params) (*TokenResponse, error) {
	serialized, err := b.assembler.SignAccessToken(at)
	if err != nil {
		return nil, err
	}

	expiresIn := int64(at.ExpiresAt.Sub(b.assembler.now()).Round(time.Second) / time.Second)
	if expiresIn < 0 {
		expiresIn = 0
	}
	resp := &TokenResponse{
		AccessToken: serialized,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Scope:       scope.Join(at.GetScopes()),
	}
	if rt != nil {
		resp.RefreshToken = rt.ID
	}

	if !at.HasScope(scope.OpenID) {
		return resp, nil
	}
	if at.UserID == "" {
		return nil, errors.ValidationError("an ID token requires an access token issued to a user")
	}
	u, err := b.users.FindByID(ctx, at.UserID)
	if err != nil {
		return nil, err
	}

	p.AccessToken = serialized
	idToken, err := b.assembler.Build(ctx, u, at, p)
	if err != nil {
		return nil, err
	}
	resp.IDToken = idToken
	return resp, nil
}
