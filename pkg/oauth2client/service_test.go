package oauth2client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/errors"
)

func TestClientService_CreateClient(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	service := NewClientService(repo)

	client, secret, err := service.CreateClient(ctx, CreateClientParams{
		ID:           "rp",
		Name:         "Relying Party",
		RedirectURIs: []string{"https://rp/cb"},
		Scopes:       []string{"openid"},
		Confidential: true,
		Owner:        "team-a",
	})
	require.NoError(t, err)
	assert.Len(t, secret, 2*secretBytes)
	assert.True(t, client.Enabled)
	assert.Equal(t, "team-a", client.Owner)
	assert.Equal(t, []string{"https://rp/cb"}, client.RedirectURIs)

	ok, err := repo.ValidateClient(ctx, "rp", secret, GrantAuthorizationCode)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = service.CreateClient(ctx, CreateClientParams{ID: "rp", Name: "Again"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadyExists))
}

func TestClientService_CreatePublicClient(t *testing.T) {
	service := NewClientService(NewInMemoryRepository())

	client, secret, err := service.CreateClient(context.Background(), CreateClientParams{
		ID:   "spa",
		Name: "Single Page App",
	})
	require.NoError(t, err)
	assert.Empty(t, secret)
	assert.False(t, client.Confidential)
}

func TestClientService_RotateAndDisable(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	service := NewClientService(repo)

	_, original, err := service.CreateClient(ctx, CreateClientParams{
		ID: "rp", Name: "RP", Confidential: true, ClientSecret: "initial-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "initial-secret", original)

	rotated, err := service.RotateSecret(ctx, "rp")
	require.NoError(t, err)
	assert.NotEqual(t, original, rotated)

	ok, err := repo.ValidateClient(ctx, "rp", original, GrantAuthorizationCode)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, service.SetEnabled(ctx, "rp", false))
	_, err = service.GetClient(ctx, "rp")
	assert.True(t, errors.IsNotFound(err))

	clients, err := service.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}
