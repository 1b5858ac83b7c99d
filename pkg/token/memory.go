package token

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

type memoryData struct {
	codes   map[string]AuthCodeState
	access  map[string]AccessTokenState
	refresh map[string]RefreshTokenState
}

func (d *memoryData) clone() memoryData {
	c := memoryData{
		codes:   make(map[string]AuthCodeState, len(d.codes)),
		access:  make(map[string]AccessTokenState, len(d.access)),
		refresh: make(map[string]RefreshTokenState, len(d.refresh)),
	}
	for k, v := range d.codes {
		c.codes[k] = v
	}
	for k, v := range d.access {
		c.access[k] = v
	}
	for k, v := range d.refresh {
		c.refresh[k] = v
	}
	return c
}

// InMemoryStore implements Store in process memory. Rows are kept in their
// persisted form so that reads always hand out fresh entities. A transaction
// holds the store lock until it finishes and restores a snapshot on error.
type InMemoryStore struct {
	mu   sync.RWMutex
	data memoryData
	root *memoryView
}

// memoryView runs repository operations against the store data. locked is
// true inside WithTx, where the store lock is already held.
type memoryView struct {
	store  *InMemoryStore
	locked bool
}

func (v *memoryView) read(fn func(d *memoryData)) {
	if !v.locked {
		v.store.mu.RLock()
		defer v.store.mu.RUnlock()
	}
	fn(&v.store.data)
}

func (v *memoryView) write(fn func(d *memoryData)) {
	if !v.locked {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	fn(&v.store.data)
}

// NewInMemoryStore creates an empty in-memory token store
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		data: memoryData{
			codes:   make(map[string]AuthCodeState),
			access:  make(map[string]AccessTokenState),
			refresh: make(map[string]RefreshTokenState),
		},
	}
	s.root = &memoryView{store: s}
	return s
}

func (s *InMemoryStore) AuthCodes() AuthCodeRepository         { return &memoryAuthCodes{s.root} }
func (s *InMemoryStore) AccessTokens() AccessTokenRepository   { return &memoryAccessTokens{s.root} }
func (s *InMemoryStore) RefreshTokens() RefreshTokenRepository { return &memoryRefreshTokens{s.root} }

func (s *InMemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memoryTx{view: &memoryView{store: s, locked: true}}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

type memoryTx struct {
	view *memoryView
}

func (t *memoryTx) AuthCodes() AuthCodeRepository         { return &memoryAuthCodes{t.view} }
func (t *memoryTx) AccessTokens() AccessTokenRepository   { return &memoryAccessTokens{t.view} }
func (t *memoryTx) RefreshTokens() RefreshTokenRepository { return &memoryRefreshTokens{t.view} }

func (t *memoryTx) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

type memoryAuthCodes struct{ v *memoryView }

func (r *memoryAuthCodes) Add(ctx context.Context, code *AuthorizationCode) error {
	var err error
	r.v.write(func(d *memoryData) {
		if _, exists := d.codes[code.ID]; exists {
			err = errors.AlreadyExists(KindAuthCode, code.ID)
			return
		}
		d.codes[code.ID] = code.State()
	})
	return err
}

func (r *memoryAuthCodes) FindByID(ctx context.Context, id string) (*AuthorizationCode, error) {
	var (
		s  AuthCodeState
		ok bool
	)
	r.v.read(func(d *memoryData) { s, ok = d.codes[id] })
	if !ok {
		return nil, errors.NotFound(KindAuthCode, id)
	}
	return AuthCodeFromState(s)
}

func (r *memoryAuthCodes) Revoke(ctx context.Context, id string) error {
	var err error
	r.v.write(func(d *memoryData) {
		s, ok := d.codes[id]
		if !ok {
			err = errors.NotFound(KindAuthCode, id)
			return
		}
		s.IsRevoked = 1
		d.codes[id] = s
	})
	return err
}

func (r *memoryAuthCodes) IsRevoked(ctx context.Context, id string) (bool, error) {
	code, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return code.IsRevoked(), nil
}

func (r *memoryAuthCodes) Consume(ctx context.Context, id string, now time.Time) (*AuthorizationCode, error) {
	cutoff := utils.FormatTimestamp(now)
	var (
		s   AuthCodeState
		err error
	)
	r.v.write(func(d *memoryData) {
		var ok bool
		s, ok = d.codes[id]
		if !ok {
			err = errors.NotFound(KindAuthCode, id)
			return
		}
		if s.IsRevoked != 0 || s.ExpiresAt <= cutoff {
			err = errors.RevocationConflict(KindAuthCode, id)
			return
		}
		s.IsRevoked = 1
		d.codes[id] = s
	})
	if err != nil {
		return nil, err
	}
	return AuthCodeFromState(s)
}

func (r *memoryAuthCodes) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := utils.FormatTimestamp(now)
	var n int64
	r.v.write(func(d *memoryData) {
		for id, s := range d.codes {
			if s.ExpiresAt < cutoff {
				delete(d.codes, id)
				n++
			}
		}
	})
	return n, nil
}

type memoryAccessTokens struct{ v *memoryView }

func (r *memoryAccessTokens) Add(ctx context.Context, t *AccessToken) error {
	var err error
	r.v.write(func(d *memoryData) {
		if _, exists := d.access[t.ID]; exists {
			err = errors.AlreadyExists(KindAccessToken, t.ID)
			return
		}
		d.access[t.ID] = t.State()
	})
	return err
}

func (r *memoryAccessTokens) FindByID(ctx context.Context, id string) (*AccessToken, error) {
	var (
		s  AccessTokenState
		ok bool
	)
	r.v.read(func(d *memoryData) { s, ok = d.access[id] })
	if !ok {
		return nil, errors.NotFound(KindAccessToken, id)
	}
	return AccessTokenFromState(s)
}

func (r *memoryAccessTokens) Revoke(ctx context.Context, id string) error {
	var err error
	r.v.write(func(d *memoryData) {
		s, ok := d.access[id]
		if !ok {
			err = errors.NotFound(KindAccessToken, id)
			return
		}
		s.IsRevoked = 1
		d.access[id] = s
	})
	return err
}

func (r *memoryAccessTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	t, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return t.IsRevoked(), nil
}

func (r *memoryAccessTokens) RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error) {
	var n int64
	r.v.write(func(d *memoryData) {
		for id, s := range d.access {
			if s.AuthCodeID != nil && *s.AuthCodeID == codeID && s.IsRevoked == 0 {
				s.IsRevoked = 1
				d.access[id] = s
				n++
			}
		}
	})
	return n, nil
}

func (r *memoryAccessTokens) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := utils.FormatTimestamp(now)
	var n int64
	r.v.write(func(d *memoryData) {
		referenced := make(map[string]struct{})
		for _, rt := range d.refresh {
			if rt.ExpiresAt >= cutoff {
				referenced[rt.AccessTokenID] = struct{}{}
			}
		}
		for id, s := range d.access {
			if _, keep := referenced[id]; keep {
				continue
			}
			if s.ExpiresAt < cutoff {
				delete(d.access, id)
				n++
			}
		}
	})
	return n, nil
}

type memoryRefreshTokens struct{ v *memoryView }

func (r *memoryRefreshTokens) Add(ctx context.Context, t *RefreshToken) error {
	var err error
	r.v.write(func(d *memoryData) {
		if _, exists := d.refresh[t.ID]; exists {
			err = errors.AlreadyExists(KindRefreshToken, t.ID)
			return
		}
		d.refresh[t.ID] = t.State()
	})
	return err
}

func (r *memoryRefreshTokens) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	var (
		s  RefreshTokenState
		ok bool
	)
	r.v.read(func(d *memoryData) { s, ok = d.refresh[id] })
	if !ok {
		return nil, errors.NotFound(KindRefreshToken, id)
	}
	return RefreshTokenFromState(s)
}

func (r *memoryRefreshTokens) Revoke(ctx context.Context, id string) error {
	var err error
	r.v.write(func(d *memoryData) {
		s, ok := d.refresh[id]
		if !ok {
			err = errors.NotFound(KindRefreshToken, id)
			return
		}
		s.IsRevoked = 1
		d.refresh[id] = s
	})
	return err
}

func (r *memoryRefreshTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	t, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return t.IsRevoked(), nil
}

func (r *memoryRefreshTokens) Consume(ctx context.Context, id string, now time.Time) (*RefreshToken, error) {
	cutoff := utils.FormatTimestamp(now)
	var (
		s   RefreshTokenState
		err error
	)
	r.v.write(func(d *memoryData) {
		var ok bool
		s, ok = d.refresh[id]
		if !ok {
			err = errors.NotFound(KindRefreshToken, id)
			return
		}
		if s.IsRevoked != 0 || s.ExpiresAt <= cutoff {
			err = errors.RevocationConflict(KindRefreshToken, id)
			return
		}
		s.IsRevoked = 1
		d.refresh[id] = s
	})
	if err != nil {
		return nil, err
	}
	return RefreshTokenFromState(s)
}

func (r *memoryRefreshTokens) RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error) {
	var n int64
	r.v.write(func(d *memoryData) {
		for id, s := range d.refresh {
			if s.AuthCodeID != nil && *s.AuthCodeID == codeID && s.IsRevoked == 0 {
				s.IsRevoked = 1
				d.refresh[id] = s
				n++
			}
		}
	})
	return n, nil
}

func (r *memoryRefreshTokens) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := utils.FormatTimestamp(now)
	var n int64
	r.v.write(func(d *memoryData) {
		for id, s := range d.refresh {
			if s.ExpiresAt < cutoff {
				delete(d.refresh, id)
				n++
			}
		}
	})
	return n, nil
}
