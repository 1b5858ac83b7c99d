package oauth2client

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// Repository defines the data access operations for OAuth2 clients
type Repository interface {
	// Add stores a new client
	Add(ctx context.Context, client *Client) error

	// FindByID returns the client whether or not it is enabled
	FindByID(ctx context.Context, clientID string) (*Client, error)

	// FindEnabledByID returns the client only when it is enabled
	FindEnabledByID(ctx context.Context, clientID string) (*Client, error)

	// Update replaces a stored client
	Update(ctx context.Context, client *Client) error

	// Delete removes a client by client ID
	Delete(ctx context.Context, clientID string) error

	// List returns all registered clients ordered by ID
	List(ctx context.Context) ([]*Client, error)

	// ValidateClient reports whether the credentials authenticate an enabled
	// client for grantType. Unknown, disabled and mismatched clients yield
	// false without an error.
	ValidateClient(ctx context.Context, clientID, secret, grantType string) (bool, error)
}

// dummySecret is compared against when the client does not exist.
const dummySecret = "00000000000000000000000000000000"

// validateCredentials holds the decision shared by every Repository.
// lookupErr is the error returned by the client lookup.
func validateCredentials(client *Client, lookupErr error, secret, grantType string) (bool, error) {
	if lookupErr != nil {
		if errors.IsNotFound(lookupErr) {
			compareSecrets(dummySecret, secret)
			slog.Warn("Client authentication failed", "reason", "unknown client")
			return false, nil
		}
		return false, lookupErr
	}

	if !client.IsUsableFor(grantType) {
		compareSecrets(dummySecret, secret)
		slog.Warn("Client authentication failed", "client_id", client.ID, "grant_type", grantType, "reason", "client not usable")
		return false, nil
	}

	if !client.VerifySecret(secret) {
		slog.Warn("Client authentication failed", "client_id", client.ID, "reason", "secret mismatch")
		return false, nil
	}
	return true, nil
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewInMemoryRepository creates a new in-memory OAuth2 client repository
// Starts empty - clients should be added through the service layer
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		clients: make(map[string]*Client),
	}
}

func (r *InMemoryRepository) Add(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.clients[client.ID]; exists {
		return errors.AlreadyExists(kind, client.ID)
	}

	now := utils.TruncateSecond(time.Now())
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = now
	}
	r.clients[client.ID] = client.clone()
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, clientID string) (*Client, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	client, exists := r.clients[clientID]
	if !exists {
		return nil, errors.NotFound(kind, clientID)
	}
	return client.clone(), nil
}

func (r *InMemoryRepository) FindEnabledByID(ctx context.Context, clientID string) (*Client, error) {
	client, err := r.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.Enabled {
		return nil, errors.NotFound(kind, clientID)
	}
	return client, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, exists := r.clients[client.ID]
	if !exists {
		return errors.NotFound(kind, client.ID)
	}

	updated := client.clone()
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = utils.TruncateSecond(time.Now())
	r.clients[client.ID] = updated
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, clientID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.clients[clientID]; !exists {
		return errors.NotFound(kind, clientID)
	}
	delete(r.clients, clientID)
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Client, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client.clone())
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

func (r *InMemoryRepository) ValidateClient(ctx context.Context, clientID, secret, grantType string) (bool, error) {
	client, err := r.FindByID(ctx, clientID)
	return validateCredentials(client, err, secret, grantType)
}
