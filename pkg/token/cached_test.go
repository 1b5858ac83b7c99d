package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/pkg/cache/memory"
)

type mockAccessTokens struct {
	mock.Mock
	AccessTokenRepository
}

func (m *mockAccessTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessTokens) Revoke(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestCachedAccessTokens_CachesPositiveResults(t *testing.T) {
	ctx := context.Background()
	repo := &mockAccessTokens{}
	repo.On("IsRevoked", ctx, "at-1").Return(true, nil).Once()
	repo.On("IsRevoked", ctx, "at-2").Return(false, nil).Twice()

	cached := NewCachedAccessTokens(repo, memory.NewAdapter(), time.Minute)

	for i := 0; i < 3; i++ {
		revoked, err := cached.IsRevoked(ctx, "at-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	}
	for i := 0; i < 2; i++ {
		revoked, err := cached.IsRevoked(ctx, "at-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	}

	repo.AssertExpectations(t)
}

func TestCachedAccessTokens_RevokeSeedsCache(t *testing.T) {
	ctx := context.Background()
	repo := &mockAccessTokens{}
	repo.On("Revoke", ctx, "at-1").Return(nil).Once()

	cached := NewCachedAccessTokens(repo, memory.NewAdapter(), time.Minute)
	require.NoError(t, cached.Revoke(ctx, "at-1"))

	revoked, err := cached.IsRevoked(ctx, "at-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	repo.AssertNotCalled(t, "IsRevoked", ctx, "at-1")
}

func TestCachedAccessTokens_OverInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.AccessTokens().Add(ctx, newTestAccessToken(t, "at-1", "", testNow.Add(time.Hour))))

	cached := NewCachedAccessTokens(store.AccessTokens(), memory.NewAdapter(), time.Minute)
	revoked, err := cached.IsRevoked(ctx, "at-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cached.Revoke(ctx, "at-1"))
	revoked, err = cached.IsRevoked(ctx, "at-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
