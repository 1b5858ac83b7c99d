package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-oidc/pkg/cache"
	"github.com/tendant/simple-oidc/pkg/cache/memory"
	"github.com/tendant/simple-oidc/pkg/cache/redis"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/idtoken"
	"github.com/tendant/simple-oidc/pkg/oauth2client"
	"github.com/tendant/simple-oidc/pkg/oidc"
	"github.com/tendant/simple-oidc/pkg/scope"
	"github.com/tendant/simple-oidc/pkg/token"
	"github.com/tendant/simple-oidc/pkg/tokengenerator"
	"github.com/tendant/simple-oidc/pkg/user"
)

var errMissingEncryptionKey = fmt.Errorf("OAUTH2_CLIENT_ENCRYPTION_KEY is not set")

// runtime holds the wired dependencies shared by the database-backed commands.
type runtime struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	clients *oauth2client.PostgresRepository
	users   *user.PostgresRepository
	closers []func()
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	poolConfig, err := cfg.Database.PoolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	rt := &runtime{cfg: cfg, pool: pool, closers: []func(){pool.Close}}

	if cfg.OAuth2Client.IsConfigured() {
		clients, err := oauth2client.NewPostgresRepository(pool, cfg.OAuth2Client.EncryptionKey)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.clients = clients
	}
	rt.users = user.NewPostgresRepository(pool)
	return rt, nil
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func loadTranslation(cfg config.OIDCConfig) (*scope.Catalog, *claims.Translator, error) {
	var file *claims.FileConfig
	if cfg.ClaimsFile != "" {
		loaded, err := claims.LoadFile(cfg.ClaimsFile)
		if err != nil {
			return nil, nil, err
		}
		file = loaded
	}
	return file.Build(cfg.UserIDAttribute)
}

func loadSigner(cfg config.JWKSConfig) (*tokengenerator.RSASigner, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("JWKS_PRIVATE_KEY_FILE is not set")
	}
	key, err := tokengenerator.LoadRSAPrivateKeyFromFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}
	return tokengenerator.NewRSASigner(key, cfg.KeyID), nil
}

func (rt *runtime) revocationCache(ctx context.Context) (cache.Cache, error) {
	if !rt.cfg.Redis.IsConfigured() {
		return memory.NewAdapter(), nil
	}
	adapter, err := redis.NewAdapter(ctx, rt.cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() {
		if err := adapter.Close(); err != nil {
			slog.Warn("Failed to close redis client", "err", err)
		}
	})
	return adapter, nil
}

// Service wires the token service over the Postgres store.
func (rt *runtime) Service(ctx context.Context) (*oidc.Service, error) {
	if rt.clients == nil {
		return nil, errMissingEncryptionKey
	}
	catalog, translator, err := loadTranslation(rt.cfg.OIDC)
	if err != nil {
		return nil, err
	}
	signer, err := loadSigner(rt.cfg.JWKS)
	if err != nil {
		return nil, err
	}
	revocations, err := rt.revocationCache(ctx)
	if err != nil {
		return nil, err
	}

	assembler := idtoken.NewAssembler(rt.cfg.OIDC.Issuer, signer, translator)
	return oidc.NewService(
		token.NewPostgresStore(rt.pool),
		rt.clients,
		rt.users,
		translator,
		assembler,
		oidc.WithCatalog(catalog),
		oidc.WithCodeExpiration(rt.cfg.OIDC.AuthCodeTTL),
		oidc.WithTokenExpiration(rt.cfg.OIDC.AccessTokenTTL),
		oidc.WithRefreshExpiration(rt.cfg.OIDC.RefreshTokenTTL),
		oidc.WithScopeClaimsInIDToken(rt.cfg.OIDC.ScopeClaimsInIDToken),
		oidc.WithRevocationCache(revocations),
	)
}
