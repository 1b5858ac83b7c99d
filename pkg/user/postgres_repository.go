package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, u *User) error {
	s := u.State()
	_, err := r.db.Exec(ctx, `
		INSERT INTO oidc_user (id, claims, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.Claims, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return errors.AlreadyExists(kind, u.ID)
		}
		return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	var s State
	err := r.db.QueryRow(ctx, `
		SELECT id, claims, created_at, updated_at
		FROM oidc_user
		WHERE id = $1`, id).Scan(&s.ID, &s.Claims, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound(kind, id)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return FromState(s)
}

func (r *PostgresRepository) Update(ctx context.Context, u *User) error {
	s := u.State()
	tag, err := r.db.Exec(ctx, `
		UPDATE oidc_user SET claims = $2, updated_at = $3
		WHERE id = $1`,
		s.ID, s.Claims, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(kind, u.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM oidc_user WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(kind, id)
	}
	return nil
}
