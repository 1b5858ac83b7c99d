package user

import (
	"context"
	"sync"

	"github.com/tendant/simple-oidc/pkg/errors"
)

// Repository persists users.
type Repository interface {
	Add(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	users map[string]*User
	mutex sync.RWMutex
}

// NewInMemoryRepository creates an empty in-memory user repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[string]*User),
	}
}

func (r *InMemoryRepository) Add(ctx context.Context, u *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return errors.AlreadyExists(kind, u.ID)
	}
	r.users[u.ID] = u.clone()
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, errors.NotFound(kind, id)
	}
	return u.clone(), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, u *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[u.ID]; !exists {
		return errors.NotFound(kind, u.ID)
	}
	r.users[u.ID] = u.clone()
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[id]; !exists {
		return errors.NotFound(kind, id)
	}
	delete(r.users, id)
	return nil
}
