package oidc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-oidc/pkg/cache"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/idtoken"
	"github.com/tendant/simple-oidc/pkg/oauth2client"
	"github.com/tendant/simple-oidc/pkg/scope"
	"github.com/tendant/simple-oidc/pkg/token"
	"github.com/tendant/simple-oidc/pkg/user"
	"golang.org/x/sync/errgroup"
)

// Service runs the token lifecycle of the provider: it issues authorization
// codes, exchanges and refreshes them for tokens, revokes token families and
// serves userinfo claims.
type Service struct {
	store      token.Store
	clients    oauth2client.Repository
	users      user.Repository
	translator *claims.Translator
	assembler  *idtoken.Assembler
	responses  *idtoken.ResponseBuilder
	catalog    *scope.Catalog

	revocationCache   cache.Cache
	codeExpiration    time.Duration
	tokenExpiration   time.Duration
	refreshExpiration time.Duration
	scopeClaims       bool
	now               func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithCatalog sets the scope catalog used to finalize requested scopes.
func WithCatalog(catalog *scope.Catalog) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithCodeExpiration sets the authorization code expiration duration
func WithCodeExpiration(duration time.Duration) Option {
	return func(s *Service) {
		s.codeExpiration = duration
	}
}

// WithTokenExpiration sets the access token expiration duration
func WithTokenExpiration(duration time.Duration) Option {
	return func(s *Service) {
		s.tokenExpiration = duration
	}
}

// WithRefreshExpiration sets the refresh token expiration duration
func WithRefreshExpiration(duration time.Duration) Option {
	return func(s *Service) {
		s.refreshExpiration = duration
	}
}

// WithScopeClaimsInIDToken controls whether scope-driven claims are added to
// ID tokens. Individually requested claims are always added.
func WithScopeClaimsInIDToken(enabled bool) Option {
	return func(s *Service) {
		s.scopeClaims = enabled
	}
}

// WithRevocationCache remembers revoked access tokens in c.
func WithRevocationCache(c cache.Cache) Option {
	return func(s *Service) {
		s.revocationCache = c
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new OIDC service using functional options
func NewService(store token.Store, clients oauth2client.Repository, users user.Repository, translator *claims.Translator, assembler *idtoken.Assembler, opts ...Option) (*Service, error) {
	s := &Service{
		store:             store,
		clients:           clients,
		users:             users,
		translator:        translator,
		assembler:         assembler,
		responses:         idtoken.NewResponseBuilder(assembler, users),
		codeExpiration:    10 * time.Minute,
		tokenExpiration:   time.Hour,
		refreshExpiration: 30 * 24 * time.Hour,
		scopeClaims:       true,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		catalog, err := scope.NewCatalog()
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
	}
	return s, nil
}

func (s *Service) accessTokens(store token.Store) token.AccessTokenRepository {
	repo := store.AccessTokens()
	if s.revocationCache != nil {
		return token.NewCachedAccessTokens(repo, s.revocationCache, s.tokenExpiration)
	}
	return repo
}

// IssueAuthorizationCode stores a code for an approved authorization request.
// The requested scopes are narrowed to those the catalog knows and the client
// may use.
func (s *Service) IssueAuthorizationCode(ctx context.Context, req AuthorizationRequest) (*token.AuthorizationCode, error) {
	client, err := s.clients.FindEnabledByID(ctx, req.ClientID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidClient(req.ClientID)
		}
		return nil, err
	}
	if !client.IsUsableFor(oauth2client.GrantAuthorizationCode) {
		return nil, errors.InvalidClient(req.ClientID)
	}
	if !client.IsRedirectURIAllowed(req.RedirectURI) {
		return nil, errors.ValidationError("redirect URI is not registered for the client").
			WithDetail("client_id", req.ClientID)
	}

	granted := scope.IDs(s.catalog.Finalize(req.Scopes, client))
	code, err := token.NewAuthorizationCode(token.AuthorizationCodeParams{
		ClientID:        client.ID,
		UserID:          req.UserID,
		Scopes:          granted,
		RedirectURI:     req.RedirectURI,
		Nonce:           req.Nonce,
		RequestedClaims: req.Claims,
		AuthTime:        req.AuthTime,
		ACR:             req.ACR,
		SessionID:       req.SessionID,
		ExpiresAt:       s.now().Add(s.codeExpiration),
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.AuthCodes().Add(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to store authorization code: %w", err)
	}

	slog.Info("Issued authorization code", "client_id", client.ID, "user_id", req.UserID, "scopes", scope.Join(granted))
	return code, nil
}

func (s *Service) authenticateClient(ctx context.Context, clientID, secret, grantType string) error {
	ok, err := s.clients.ValidateClient(ctx, clientID, secret, grantType)
	if err != nil {
		return err
	}
	if !ok {
		return errors.InvalidClient(clientID)
	}
	return nil
}

// ExchangeAuthorizationCode spends a code and issues an access and refresh
// token for it. The code is consumed with an atomic check-and-set in the same
// transaction that stores the new tokens, so concurrent exchanges of one code
// yield exactly one token response. A replayed code revokes every token
// issued from it.
func (s *Service) ExchangeAuthorizationCode(ctx context.Context, req ExchangeRequest) (*idtoken.TokenResponse, error) {
	if err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret, oauth2client.GrantAuthorizationCode); err != nil {
		return nil, err
	}

	now := s.now()
	var resp *idtoken.TokenResponse
	err := s.store.WithTx(ctx, func(tx token.Store) error {
		code, err := tx.AuthCodes().Consume(ctx, req.Code, now)
		if err != nil {
			return err
		}
		if code.ClientID != req.ClientID {
			return errors.ValidationError("authorization code was issued to a different client")
		}
		if code.RedirectURI != req.RedirectURI {
			return errors.ValidationError("redirect URI mismatch")
		}

		at, rt, err := s.issueTokens(ctx, tx, token.AccessTokenParams{
			ClientID:        code.ClientID,
			UserID:          code.UserID,
			Scopes:          code.GetScopes(),
			AuthCodeID:      code.ID,
			RequestedClaims: code.RequestedClaims(),
			ExpiresAt:       now.Add(s.tokenExpiration),
		}, now)
		if err != nil {
			return err
		}

		resp, err = s.responses.Build(ctx, at, rt, idtoken.Params{
			Nonce:               code.Nonce,
			AuthTime:            code.AuthTime,
			ACR:                 code.ACR,
			AMR:                 req.AMR,
			SessionID:           code.SessionID,
			AddClaimsFromScopes: s.scopeClaims,
		})
		return err
	})
	if err != nil {
		if errors.IsRevoked(err) {
			slog.Warn("Authorization code replayed, revoking issued tokens", "client_id", req.ClientID)
			if cascadeErr := s.RevokeAuthorizationCodeFamily(ctx, req.Code); cascadeErr != nil {
				slog.Error("Failed to revoke tokens of replayed code", "err", cascadeErr)
			}
		}
		return nil, err
	}

	slog.Info("Exchanged authorization code", "client_id", req.ClientID)
	return resp, nil
}

// issueTokens stores a new access token and its refresh token.
func (s *Service) issueTokens(ctx context.Context, tx token.Store, params token.AccessTokenParams, now time.Time) (*token.AccessToken, *token.RefreshToken, error) {
	at, err := token.NewAccessToken(params)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.AccessTokens().Add(ctx, at); err != nil {
		return nil, nil, err
	}

	rt, err := token.NewRefreshToken("", at.ID, params.AuthCodeID, now.Add(s.refreshExpiration))
	if err != nil {
		return nil, nil, err
	}
	if err := tx.RefreshTokens().Add(ctx, rt); err != nil {
		return nil, nil, err
	}
	return at, rt, nil
}

// RefreshAccessToken spends a refresh token and issues a new token pair. The
// new access token inherits the user, the originating code and the requested
// claims snapshot of the old one; its scopes may only be narrowed.
func (s *Service) RefreshAccessToken(ctx context.Context, req RefreshRequest) (*idtoken.TokenResponse, error) {
	if err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret, oauth2client.GrantRefreshToken); err != nil {
		return nil, err
	}

	now := s.now()
	var resp *idtoken.TokenResponse
	err := s.store.WithTx(ctx, func(tx token.Store) error {
		rt, err := tx.RefreshTokens().Consume(ctx, req.RefreshToken, now)
		if err != nil {
			return err
		}
		parent, err := tx.AccessTokens().FindByID(ctx, rt.AccessTokenID)
		if err != nil {
			return err
		}
		if parent.ClientID != req.ClientID {
			return errors.ValidationError("refresh token was issued to a different client")
		}

		scopes := parent.GetScopes()
		if len(req.Scopes) > 0 {
			for _, requested := range req.Scopes {
				if !parent.HasScope(requested) {
					return errors.ValidationError("requested scope exceeds the original grant").
						WithDetail("scope", requested)
				}
			}
			scopes = scope.IDs(s.catalog.Finalize(req.Scopes, parent))
		}

		if err := tx.AccessTokens().Revoke(ctx, parent.ID); err != nil {
			return err
		}

		at, next, err := s.issueTokens(ctx, tx, token.AccessTokenParams{
			ClientID:        parent.ClientID,
			UserID:          parent.UserID,
			Scopes:          scopes,
			AuthCodeID:      parent.AuthCodeID,
			RequestedClaims: parent.RequestedClaims(),
			ExpiresAt:       now.Add(s.tokenExpiration),
		}, now)
		if err != nil {
			return err
		}

		resp, err = s.responses.Build(ctx, at, next, idtoken.Params{AddClaimsFromScopes: s.scopeClaims})
		return err
	})
	if err != nil {
		if errors.IsRevoked(err) {
			s.cascadeRefreshReplay(ctx, req.RefreshToken)
		}
		return nil, err
	}

	slog.Info("Refreshed access token", "client_id", req.ClientID)
	return resp, nil
}

func (s *Service) cascadeRefreshReplay(ctx context.Context, refreshTokenID string) {
	rt, err := s.store.RefreshTokens().FindByID(ctx, refreshTokenID)
	if err != nil || rt.AuthCodeID == "" {
		return
	}
	slog.Warn("Refresh token replayed, revoking token family", "auth_code_id", rt.AuthCodeID)
	if err := s.RevokeAuthorizationCodeFamily(ctx, rt.AuthCodeID); err != nil {
		slog.Error("Failed to revoke token family", "err", err)
	}
}

// IssueClientCredentialsToken issues an access token to a confidential client
// acting on its own behalf. No refresh token or ID token is issued, and
// openid is never granted since there is no user.
func (s *Service) IssueClientCredentialsToken(ctx context.Context, req ClientCredentialsRequest) (*idtoken.TokenResponse, error) {
	if err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret, oauth2client.GrantClientCredentials); err != nil {
		return nil, err
	}
	client, err := s.clients.FindEnabledByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	var granted []string
	for _, id := range scope.IDs(s.catalog.Finalize(req.Scopes, client)) {
		if id != scope.OpenID {
			granted = append(granted, id)
		}
	}

	at, err := token.NewAccessToken(token.AccessTokenParams{
		ClientID:  client.ID,
		Scopes:    granted,
		ExpiresAt: s.now().Add(s.tokenExpiration),
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.AccessTokens().Add(ctx, at); err != nil {
		return nil, err
	}
	return s.responses.Build(ctx, at, nil, idtoken.Params{})
}

// RevokeAuthorizationCodeFamily revokes a code together with every access and
// refresh token issued from it, in one transaction. A code that was already
// purged still has its tokens revoked.
func (s *Service) RevokeAuthorizationCodeFamily(ctx context.Context, codeID string) error {
	var accessCount, refreshCount int64
	err := s.store.WithTx(ctx, func(tx token.Store) error {
		if err := tx.AuthCodes().Revoke(ctx, codeID); err != nil && !errors.IsNotFound(err) {
			return err
		}
		var err error
		if accessCount, err = tx.AccessTokens().RevokeByAuthCodeID(ctx, codeID); err != nil {
			return err
		}
		refreshCount, err = tx.RefreshTokens().RevokeByAuthCodeID(ctx, codeID)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("Revoked token family", "auth_code_id", codeID, "access_tokens", accessCount, "refresh_tokens", refreshCount)
	return nil
}

// UserInfoClaims returns the claims the holder of a live access token may see:
// those exposed by its scopes plus those individually requested for userinfo.
func (s *Service) UserInfoClaims(ctx context.Context, accessTokenID string) (claims.Claims, error) {
	repo := s.accessTokens(s.store)
	revoked, err := repo.IsRevoked(ctx, accessTokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errors.RevocationConflict(token.KindAccessToken, accessTokenID)
	}

	at, err := repo.FindByID(ctx, accessTokenID)
	if err != nil {
		return nil, err
	}
	if at.IsExpired(s.now()) {
		return nil, errors.RevocationConflict(token.KindAccessToken, accessTokenID)
	}
	if at.UserID == "" {
		return nil, errors.ValidationError("access token was not issued to a user")
	}

	u, err := s.users.FindByID(ctx, at.UserID)
	if err != nil {
		return nil, err
	}
	attrs := claims.Attributes(u.Claims())

	out, err := s.translator.Extract(at.GetScopes(), attrs)
	if err != nil {
		return nil, err
	}
	additional, err := s.translator.ExtractAdditionalUserInfoClaims(at.RequestedClaims().UserInfoClaims(), attrs)
	if err != nil {
		return nil, err
	}
	for k, v := range additional {
		out[k] = v
	}
	out["sub"] = u.ID
	return out, nil
}

// UserInfo verifies a bearer access token and returns its userinfo claims.
func (s *Service) UserInfo(ctx context.Context, bearer string) (claims.Claims, error) {
	id, err := s.assembler.AccessTokenID(bearer)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid access token")
	}
	return s.UserInfoClaims(ctx, id)
}

// RemoveExpired purges expired codes and tokens from all three repositories
// concurrently.
func (s *Service) RemoveExpired(ctx context.Context) (PurgeResult, error) {
	now := s.now()
	var result PurgeResult

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.AuthCodes().RemoveExpired(ctx, now)
		result.AuthCodes = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.AccessTokens().RemoveExpired(ctx, now)
		result.AccessTokens = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.RefreshTokens().RemoveExpired(ctx, now)
		result.RefreshTokens = n
		return err
	})
	if err := g.Wait(); err != nil {
		return PurgeResult{}, err
	}

	slog.Info("Removed expired tokens", "auth_codes", result.AuthCodes, "access_tokens", result.AccessTokens, "refresh_tokens", result.RefreshTokens)
	return result, nil
}
