package oidc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-oidc/internal/pgtest"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/oauth2client"
	"github.com/tendant/simple-oidc/pkg/token"
	"github.com/tendant/simple-oidc/pkg/user"
)

func TestService_Postgres(t *testing.T) {
	pool, cleanup := pgtest.Start(t)
	defer cleanup()

	clients, err := oauth2client.NewPostgresRepository(pool, "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	deps := fixtureDeps{
		store:   token.NewPostgresStore(pool),
		clients: clients,
		users:   user.NewPostgresRepository(pool),
	}
	f := newFixture(t, deps)
	ctx := context.Background()

	t.Run("ExchangeAndRefresh", func(t *testing.T) {
		code := f.issueCode(t, "openid", "email")
		first, err := f.exchange(code.ID)
		require.NoError(t, err)

		second, err := f.service.RefreshAccessToken(ctx, RefreshRequest{
			RefreshToken: first.RefreshToken,
			ClientID:     "client-1",
			ClientSecret: f.secret,
		})
		require.NoError(t, err)

		info, err := f.service.UserInfo(ctx, second.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.org", info["email"])

		_, err = f.exchange(code.ID)
		assert.True(t, errors.IsRevoked(err))
		_, err = f.service.UserInfo(ctx, second.AccessToken)
		assert.True(t, errors.IsRevoked(err), "replay revoked the refreshed token too")
	})

	t.Run("SingleUseUnderRace", func(t *testing.T) {
		code := f.issueCode(t, "openid")
		const attempts = 2
		results := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				_, err := f.exchange(code.ID)
				results <- err
			}()
		}

		var successes, conflicts int
		for i := 0; i < attempts; i++ {
			err := <-results
			switch {
			case err == nil:
				successes++
			case errors.IsRevoked(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, conflicts)
	})
}
