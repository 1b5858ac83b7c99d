package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresStore creates a token store over pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

func (s *PostgresStore) AuthCodes() AuthCodeRepository         { return &pgAuthCodes{s.db} }
func (s *PostgresStore) AccessTokens() AccessTokenRepository   { return &pgAccessTokens{s.db} }
func (s *PostgresStore) RefreshTokens() RefreshTokenRepository { return &pgRefreshTokens{s.db} }

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// exists distinguishes a missing row from one that failed a conditional update.
func exists(ctx context.Context, db DBTX, table, id string) (bool, error) {
	var one int
	err := db.QueryRow(ctx, "SELECT 1 FROM "+table+" WHERE id = $1", id).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func revokeByID(ctx context.Context, db DBTX, table, kind, id string) error {
	tag, err := db.Exec(ctx, "UPDATE "+table+" SET is_revoked = 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to revoke %s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(kind, id)
	}
	return nil
}

func isRevoked(ctx context.Context, db DBTX, table, kind, id string) (bool, error) {
	var flag int
	err := db.QueryRow(ctx, "SELECT is_revoked FROM "+table+" WHERE id = $1", id).Scan(&flag)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, errors.NotFound(kind, id)
		}
		return false, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}
	revoked, err := utils.IntToBool(flag)
	if err != nil {
		return false, errors.StateError(kind, "is_revoked", err)
	}
	return revoked, nil
}

const authCodeColumns = `id, client_id, user_id, scopes, redirect_uri, nonce, requested_claims,
	auth_time, acr, session_id, expires_at, is_revoked`

type pgAuthCodes struct{ db DBTX }

func scanAuthCode(row pgx.Row) (*AuthorizationCode, error) {
	var s AuthCodeState
	err := row.Scan(&s.ID, &s.ClientID, &s.UserID, &s.Scopes, &s.RedirectURI, &s.Nonce,
		&s.RequestedClaims, &s.AuthTime, &s.ACR, &s.SessionID, &s.ExpiresAt, &s.IsRevoked)
	if err != nil {
		return nil, err
	}
	return AuthCodeFromState(s)
}

func (r *pgAuthCodes) Add(ctx context.Context, code *AuthorizationCode) error {
	s := code.State()
	_, err := r.db.Exec(ctx, `
		INSERT INTO oidc_auth_code (`+authCodeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.ClientID, s.UserID, s.Scopes, s.RedirectURI, s.Nonce, s.RequestedClaims,
		s.AuthTime, s.ACR, s.SessionID, s.ExpiresAt, s.IsRevoked)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return errors.AlreadyExists(KindAuthCode, code.ID)
		}
		return fmt.Errorf("failed to insert authorization code: %w", err)
	}
	return nil
}

func (r *pgAuthCodes) FindByID(ctx context.Context, id string) (*AuthorizationCode, error) {
	code, err := scanAuthCode(r.db.QueryRow(ctx,
		`SELECT `+authCodeColumns+` FROM oidc_auth_code WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound(KindAuthCode, id)
		}
		return nil, err
	}
	return code, nil
}

func (r *pgAuthCodes) Revoke(ctx context.Context, id string) error {
	return revokeByID(ctx, r.db, "oidc_auth_code", KindAuthCode, id)
}

func (r *pgAuthCodes) IsRevoked(ctx context.Context, id string) (bool, error) {
	return isRevoked(ctx, r.db, "oidc_auth_code", KindAuthCode, id)
}

func (r *pgAuthCodes) Consume(ctx context.Context, id string, now time.Time) (*AuthorizationCode, error) {
	code, err := scanAuthCode(r.db.QueryRow(ctx, `
		UPDATE oidc_auth_code SET is_revoked = 1
		WHERE id = $1 AND is_revoked = 0 AND expires_at > $2
		RETURNING `+authCodeColumns, id, utils.FormatTimestamp(now)))
	if err == nil {
		return code, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	found, err := exists(ctx, r.db, "oidc_auth_code", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}
	if !found {
		return nil, errors.NotFound(KindAuthCode, id)
	}
	return nil, errors.RevocationConflict(KindAuthCode, id)
}

func (r *pgAuthCodes) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM oidc_auth_code WHERE expires_at < $1`, utils.FormatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("failed to purge authorization codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

const accessTokenColumns = `id, client_id, user_id, scopes, expires_at, is_revoked, auth_code_id, requested_claims`

type pgAccessTokens struct{ db DBTX }

func (r *pgAccessTokens) Add(ctx context.Context, t *AccessToken) error {
	s := t.State()
	_, err := r.db.Exec(ctx, `
		INSERT INTO oidc_access_token (`+accessTokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.ClientID, s.UserID, s.Scopes, s.ExpiresAt, s.IsRevoked, s.AuthCodeID, s.RequestedClaims)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return errors.AlreadyExists(KindAccessToken, t.ID)
		}
		return fmt.Errorf("failed to insert access token: %w", err)
	}
	return nil
}

func (r *pgAccessTokens) FindByID(ctx context.Context, id string) (*AccessToken, error) {
	var s AccessTokenState
	err := r.db.QueryRow(ctx, `SELECT `+accessTokenColumns+` FROM oidc_access_token WHERE id = $1`, id).
		Scan(&s.ID, &s.ClientID, &s.UserID, &s.Scopes, &s.ExpiresAt, &s.IsRevoked, &s.AuthCodeID, &s.RequestedClaims)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound(KindAccessToken, id)
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	return AccessTokenFromState(s)
}

func (r *pgAccessTokens) Revoke(ctx context.Context, id string) error {
	return revokeByID(ctx, r.db, "oidc_access_token", KindAccessToken, id)
}

func (r *pgAccessTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	return isRevoked(ctx, r.db, "oidc_access_token", KindAccessToken, id)
}

func (r *pgAccessTokens) RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE oidc_access_token SET is_revoked = 1
		WHERE auth_code_id = $1 AND is_revoked = 0`, codeID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke access tokens of code: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgAccessTokens) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM oidc_access_token a
		WHERE a.expires_at < $1
		AND NOT EXISTS (
			SELECT 1 FROM oidc_refresh_token r
			WHERE r.access_token_id = a.id AND r.expires_at >= $1
		)`, utils.FormatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("failed to purge access tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

const refreshTokenColumns = `id, access_token_id, auth_code_id, expires_at, is_revoked`

type pgRefreshTokens struct{ db DBTX }

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	var s RefreshTokenState
	if err := row.Scan(&s.ID, &s.AccessTokenID, &s.AuthCodeID, &s.ExpiresAt, &s.IsRevoked); err != nil {
		return nil, err
	}
	return RefreshTokenFromState(s)
}

func (r *pgRefreshTokens) Add(ctx context.Context, t *RefreshToken) error {
	s := t.State()
	_, err := r.db.Exec(ctx, `
		INSERT INTO oidc_refresh_token (`+refreshTokenColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.AccessTokenID, s.AuthCodeID, s.ExpiresAt, s.IsRevoked)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return errors.AlreadyExists(KindRefreshToken, t.ID)
		}
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

func (r *pgRefreshTokens) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	t, err := scanRefreshToken(r.db.QueryRow(ctx,
		`SELECT `+refreshTokenColumns+` FROM oidc_refresh_token WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound(KindRefreshToken, id)
		}
		return nil, err
	}
	return t, nil
}

func (r *pgRefreshTokens) Revoke(ctx context.Context, id string) error {
	return revokeByID(ctx, r.db, "oidc_refresh_token", KindRefreshToken, id)
}

func (r *pgRefreshTokens) IsRevoked(ctx context.Context, id string) (bool, error) {
	return isRevoked(ctx, r.db, "oidc_refresh_token", KindRefreshToken, id)
}

func (r *pgRefreshTokens) Consume(ctx context.Context, id string, now time.Time) (*RefreshToken, error) {
	t, err := scanRefreshToken(r.db.QueryRow(ctx, `
		UPDATE oidc_refresh_token SET is_revoked = 1
		WHERE id = $1 AND is_revoked = 0 AND expires_at > $2
		RETURNING `+refreshTokenColumns, id, utils.FormatTimestamp(now)))
	if err == nil {
		return t, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	found, err := exists(ctx, r.db, "oidc_refresh_token", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if !found {
		return nil, errors.NotFound(KindRefreshToken, id)
	}
	return nil, errors.RevocationConflict(KindRefreshToken, id)
}

func (r *pgRefreshTokens) RevokeByAuthCodeID(ctx context.Context, codeID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE oidc_refresh_token SET is_revoked = 1
		WHERE auth_code_id = $1 AND is_revoked = 0`, codeID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens of code: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgRefreshTokens) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM oidc_refresh_token WHERE expires_at < $1`, utils.FormatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
