package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tendant/simple-oidc/pkg/cache"
)

var (
	ErrInvalidTTL = errors.New("memory cache: ttl must be greater than zero")
)

type entry struct {
	value   string
	expires time.Time
}

type Adapter struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

var _ cache.Cache = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{
		entries: map[string]entry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (a *Adapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validateSetInput(key, ttl); err != nil {
		return err
	}

	a.mu.Lock()
	a.entries[key] = entry{value: value, expires: a.now().Add(ttl)}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	now := a.now()

	a.mu.RLock()
	e, ok := a.entries[key]
	a.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if now.After(e.expires) {
		a.mu.Lock()
		delete(a.entries, key)
		a.mu.Unlock()
		return "", false, nil
	}

	return e.value, true, nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (a *Adapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

func validateSetInput(key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("memory cache: key is required")
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
