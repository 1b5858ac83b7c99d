package idtoken

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/scope"
	"github.com/tendant/simple-oidc/pkg/token"
	"github.com/tendant/simple-oidc/pkg/tokengenerator"
	"github.com/tendant/simple-oidc/pkg/user"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// registered lists the claims the assembler owns. Translated claims with the
// same name are dropped.
var registered = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "iat": {}, "nbf": {}, "jti": {},
	"azp": {}, "nonce": {}, "auth_time": {}, "acr": {}, "amr": {}, "sid": {}, "at_hash": {},
}

// Params is the authorization-time context of an ID token.
type Params struct {
	Nonce     string
	AuthTime  time.Time
	ACR       string
	AMR       []string
	SessionID string
	// AccessToken is the serialized access token issued alongside; when set
	// the ID token carries its at_hash.
	AccessToken string
	// AddClaimsFromScopes adds the claims exposed by the granted scopes. The
	// individually requested id_token claims are always added.
	AddClaimsFromScopes bool
}

// Assembler builds and signs ID tokens and access token JWTs.
type Assembler struct {
	issuer     string
	signer     tokengenerator.Signer
	translator *claims.Translator
	now        func() time.Time
}

// Option configures an Assembler
type Option func(*Assembler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(issuer string, signer tokengenerator.Signer, translator *claims.Translator, opts ...Option) *Assembler {
	a := &Assembler{
		issuer:     issuer,
		signer:     signer,
		translator: translator,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Claims assembles the ID token claim set for u and the access token it
// accompanies. The token expires with the access token.
func (a *Assembler) Claims(u *user.User, at *token.AccessToken, p Params) (map[string]interface{}, error) {
	attrs := claims.Attributes(u.Claims())
	out := make(map[string]interface{})

	if p.AddClaimsFromScopes {
		scoped, err := a.translator.Extract(at.GetScopes(), attrs)
		if err != nil {
			return nil, err
		}
		merge(out, scoped)
	}
	additional, err := a.translator.ExtractAdditionalIDTokenClaims(at.RequestedClaims().IDTokenClaims(), attrs)
	if err != nil {
		return nil, err
	}
	merge(out, additional)

	now := utils.TruncateSecond(a.now())
	out["iss"] = a.issuer
	out["sub"] = u.ID
	out["aud"] = at.ClientID
	out["azp"] = at.ClientID
	out["iat"] = now.Unix()
	out["nbf"] = now.Unix()
	out["exp"] = at.ExpiresAt.Unix()
	out["jti"] = uuid.New().String()

	if p.Nonce != "" {
		out["nonce"] = p.Nonce
	}
	if !p.AuthTime.IsZero() {
		out["auth_time"] = p.AuthTime.Unix()
	}
	if p.ACR != "" {
		out["acr"] = p.ACR
	}
	if len(p.AMR) > 0 {
		out["amr"] = utils.CopyStrings(p.AMR)
	}
	if p.SessionID != "" {
		out["sid"] = p.SessionID
	}
	if p.AccessToken != "" {
		out["at_hash"] = AccessTokenHash(p.AccessToken)
	}
	return out, nil
}

// Build assembles and signs the ID token.
func (a *Assembler) Build(ctx context.Context, u *user.User, at *token.AccessToken, p Params) (string, error) {
	c, err := a.Claims(u, at, p)
	if err != nil {
		return "", err
	}
	signed, err := a.signer.Sign(c)
	if err != nil {
		return "", fmt.Errorf("failed to sign id token: %w", err)
	}
	return signed, nil
}

// SignAccessToken serializes at as a JWT whose jti is the token identifier.
func (a *Assembler) SignAccessToken(at *token.AccessToken) (string, error) {
	now := utils.TruncateSecond(a.now())
	sub := at.UserID
	if sub == "" {
		sub = at.ClientID
	}
	signed, err := a.signer.Sign(map[string]interface{}{
		"iss":       a.issuer,
		"sub":       sub,
		"aud":       at.ClientID,
		"client_id": at.ClientID,
		"scope":     scope.Join(at.GetScopes()),
		"iat":       now.Unix(),
		"exp":       at.ExpiresAt.Unix(),
		"jti":       at.ID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// AccessTokenID verifies a serialized access token and returns its identifier.
func (a *Assembler) AccessTokenID(serialized string) (string, error) {
	c, err := a.signer.Verify(serialized)
	if err != nil {
		return "", err
	}
	if iss, _ := c["iss"].(string); iss != a.issuer {
		return "", fmt.Errorf("unexpected issuer %q", iss)
	}
	jti, _ := c["jti"].(string)
	if jti == "" {
		return "", fmt.Errorf("access token has no jti")
	}
	return jti, nil
}

// AccessTokenHash computes at_hash: the base64url encoded left half of the
// SHA-256 digest of the access token.
func AccessTokenHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}

func merge(dst map[string]interface{}, src claims.Claims) {
	for k, v := range src {
		if _, reserved := registered[k]; reserved {
			continue
		}
		dst[k] = v
	}
}
