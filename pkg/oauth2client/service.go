package oauth2client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinzhu/copier"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// secretBytes is the entropy of generated client secrets.
const secretBytes = 24

// CreateClientParams represents parameters for registering a client
type CreateClientParams struct {
	ID                     string
	ClientSecret           string // generated for confidential clients when empty
	Name                   string
	Description            string
	RedirectURIs           []string
	Scopes                 []string
	Confidential           bool
	AuthSource             string
	Owner                  string
	PostLogoutRedirectURIs []string
	BackchannelLogoutURI   string
}

// ClientService provides the administrative operations on clients
type ClientService struct {
	repository Repository
}

// NewClientService creates a new client service with the provided repository
func NewClientService(repository Repository) *ClientService {
	return &ClientService{
		repository: repository,
	}
}

// CreateClient registers a new, enabled client. The returned secret is the
// only time a generated secret is disclosed.
func (s *ClientService) CreateClient(ctx context.Context, params CreateClientParams) (*Client, string, error) {
	client := &Client{Enabled: true}
	if err := copier.Copy(client, &params); err != nil {
		return nil, "", fmt.Errorf("failed to map client params: %w", err)
	}
	client.RedirectURIs = utils.CopyStrings(params.RedirectURIs)
	client.Scopes = utils.CopyStrings(params.Scopes)
	client.PostLogoutRedirectURIs = utils.CopyStrings(params.PostLogoutRedirectURIs)

	secret := params.ClientSecret
	if client.Confidential && secret == "" {
		generated, err := utils.GenerateRandomHex(secretBytes)
		if err != nil {
			return nil, "", err
		}
		secret = generated
	}
	client.secret = secret

	if err := s.repository.Add(ctx, client); err != nil {
		return nil, "", err
	}
	slog.Info("Client registered", "client_id", client.ID, "confidential", client.Confidential)
	return client, secret, nil
}

// RotateSecret generates a new secret for a confidential client.
func (s *ClientService) RotateSecret(ctx context.Context, clientID string) (string, error) {
	client, err := s.repository.FindByID(ctx, clientID)
	if err != nil {
		return "", err
	}

	secret, err := utils.GenerateRandomHex(secretBytes)
	if err != nil {
		return "", err
	}
	client.RestoreSecret(secret)
	if err := s.repository.Update(ctx, client); err != nil {
		return "", err
	}
	slog.Info("Client secret rotated", "client_id", clientID)
	return secret, nil
}

// SetEnabled enables or disables a client.
func (s *ClientService) SetEnabled(ctx context.Context, clientID string, enabled bool) error {
	client, err := s.repository.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	client.Enabled = enabled
	return s.repository.Update(ctx, client)
}

// GetClient returns an enabled client.
func (s *ClientService) GetClient(ctx context.Context, clientID string) (*Client, error) {
	return s.repository.FindEnabledByID(ctx, clientID)
}

// ListClients returns all registered clients (for admin purposes)
func (s *ClientService) ListClients(ctx context.Context) ([]*Client, error) {
	return s.repository.List(ctx)
}
