package token

import (
	"context"
	"time"
)

// AuthCodeRepository persists authorization codes.
type AuthCodeRepository interface {
	Add(ctx context.Context, code *AuthorizationCode) error
	// FindByID returns a NotFound error when the code does not exist.
	FindByID(ctx context.Context, id string) (*AuthorizationCode, error)
	// Revoke sets the revoked flag. Revoking a revoked code is not an error.
	Revoke(ctx context.Context, id string) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	// Consume atomically revokes a live code and returns it. A revoked or
	// expired code yields a RevocationConflict, so at most one caller ever
	// consumes a given code.
	Consume(ctx context.Context, id string, now time.Time) (*AuthorizationCode, error)
	// RemoveExpired deletes codes whose expiry is strictly before now.
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
}

// AccessTokenRepository persists access tokens.
type AccessTokenRepository interface {
	Add(ctx context.Context, t *AccessToken) error
	FindByID(ctx context.Context, id string) (*AccessToken, error)
	Revoke(ctx context.Context, id string) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	// RevokeByAuthCodeID revokes every live token issued from the code and
	// returns how many were revoked.
	RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error)
	// RemoveExpired deletes tokens whose expiry is strictly before now,
	// except those still referenced by an unexpired refresh token.
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshTokenRepository persists refresh tokens.
type RefreshTokenRepository interface {
	Add(ctx context.Context, t *RefreshToken) error
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	Consume(ctx context.Context, id string, now time.Time) (*RefreshToken, error)
	RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error)
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store groups the token repositories over one backing store.
type Store interface {
	AuthCodes() AuthCodeRepository
	AccessTokens() AccessTokenRepository
	RefreshTokens() RefreshTokenRepository
	// WithTx runs fn inside a transaction. The Store passed to fn must be
	// used for every operation that belongs to the transaction. Any error
	// returned by fn rolls the transaction back. Nested calls join the
	// enclosing transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
