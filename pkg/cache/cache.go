// Package cache defines a small key/value cache with per-entry expiry and
// ships an in-process and a Redis implementation.
package cache

import (
	"context"
	"time"
)

// Cache stores string values under string keys for a bounded time.
type Cache interface {
	// Get returns the value stored under key. The boolean is false when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
