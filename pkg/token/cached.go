package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/tendant/simple-oidc/pkg/cache"
)

const revokedMarker = "1"

// CachedAccessTokens wraps an AccessTokenRepository and remembers tokens found
// revoked. Revocation is one-way, so a cached positive answer never goes stale;
// negative answers always go to the repository.
type CachedAccessTokens struct {
	AccessTokenRepository
	cache cache.Cache
	ttl   time.Duration
}

var _ AccessTokenRepository = (*CachedAccessTokens)(nil)

// NewCachedAccessTokens caches revocation results for ttl, usually the access
// token lifetime.
func NewCachedAccessTokens(repo AccessTokenRepository, c cache.Cache, ttl time.Duration) *CachedAccessTokens {
	return &CachedAccessTokens{AccessTokenRepository: repo, cache: c, ttl: ttl}
}

func revokedKey(id string) string {
	return "access_token:revoked:" + id
}

func (c *CachedAccessTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	if v, ok, err := c.cache.Get(ctx, revokedKey(id)); err != nil {
		slog.Warn("Revocation cache lookup failed", "id", id, "err", err)
	} else if ok && v == revokedMarker {
		return true, nil
	}

	revoked, err := c.AccessTokenRepository.IsRevoked(ctx, id)
	if err != nil {
		return false, err
	}
	if revoked {
		c.remember(ctx, id)
	}
	return revoked, nil
}

func (c *CachedAccessTokens) Revoke(ctx context.Context, id string) error {
	if err := c.AccessTokenRepository.Revoke(ctx, id); err != nil {
		return err
	}
	c.remember(ctx, id)
	return nil
}

func (c *CachedAccessTokens) remember(ctx context.Context, id string) {
	if err := c.cache.Set(ctx, revokedKey(id), revokedMarker, c.ttl); err != nil {
		slog.Warn("Failed to cache revocation", "id", id, "err", err)
	}
}
