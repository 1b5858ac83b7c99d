package oauth2client

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-oidc/pkg/errors"
	"github.com/tendant/simple-oidc/pkg/utils"
)

const clientColumns = `id, secret, name, description, redirect_uri, scopes, is_confidential,
	is_enabled, auth_source, owner, post_logout_redirect_uri, backchannel_logout_uri,
	created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL. Client secrets
// are stored encrypted.
type PostgresRepository struct {
	db        *pgxpool.Pool
	encryptor *EncryptionService
}

// NewPostgresRepository creates a new PostgreSQL OAuth2 client repository
func NewPostgresRepository(db *pgxpool.Pool, encryptionKey string) (*PostgresRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	encryptor, err := NewEncryptionService(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryption service: %w", err)
	}

	return &PostgresRepository{
		db:        db,
		encryptor: encryptor,
	}, nil
}

func (r *PostgresRepository) Add(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	now := utils.TruncateSecond(time.Now())
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = now
	}

	s, err := r.encryptedState(client)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO oidc_client (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.Secret, s.Name, s.Description, s.RedirectURI, s.Scopes, s.IsConfidential,
		s.IsEnabled, s.AuthSource, s.Owner, s.PostLogoutRedirectURI, s.BackchannelLogoutURI,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return errors.AlreadyExists(kind, client.ID)
		}
		return fmt.Errorf("failed to create client %s: %w", client.ID, err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, clientID string) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM oidc_client WHERE id = $1`, clientID)
	client, err := r.scanClient(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound(kind, clientID)
		}
		return nil, err
	}
	return client, nil
}

func (r *PostgresRepository) FindEnabledByID(ctx context.Context, clientID string) (*Client, error) {
	client, err := r.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.Enabled {
		return nil, errors.NotFound(kind, clientID)
	}
	return client, nil
}

func (r *PostgresRepository) Update(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	client.UpdatedAt = utils.TruncateSecond(time.Now())
	s, err := r.encryptedState(client)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE oidc_client SET
			secret = $2, name = $3, description = $4, redirect_uri = $5, scopes = $6,
			is_confidential = $7, is_enabled = $8, auth_source = $9, owner = $10,
			post_logout_redirect_uri = $11, backchannel_logout_uri = $12, updated_at = $13
		WHERE id = $1`,
		s.ID, s.Secret, s.Name, s.Description, s.RedirectURI, s.Scopes,
		s.IsConfidential, s.IsEnabled, s.AuthSource, s.Owner,
		s.PostLogoutRedirectURI, s.BackchannelLogoutURI, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update client %s: %w", client.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(kind, client.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, clientID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM oidc_client WHERE id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client %s: %w", clientID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(kind, clientID)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM oidc_client ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		client, err := r.scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (r *PostgresRepository) ValidateClient(ctx context.Context, clientID, secret, grantType string) (bool, error) {
	client, err := r.FindByID(ctx, clientID)
	return validateCredentials(client, err, secret, grantType)
}

func (r *PostgresRepository) encryptedState(client *Client) (ClientState, error) {
	s := client.State()
	if s.Secret == "" {
		return s, nil
	}
	encrypted, err := r.encryptor.Encrypt(s.Secret)
	if err != nil {
		return ClientState{}, fmt.Errorf("failed to encrypt client secret: %w", err)
	}
	s.Secret = encrypted
	return s, nil
}

func (r *PostgresRepository) scanClient(row pgx.Row) (*Client, error) {
	var s ClientState
	err := row.Scan(&s.ID, &s.Secret, &s.Name, &s.Description, &s.RedirectURI, &s.Scopes,
		&s.IsConfidential, &s.IsEnabled, &s.AuthSource, &s.Owner, &s.PostLogoutRedirectURI,
		&s.BackchannelLogoutURI, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	if s.Secret != "" {
		decrypted, err := r.encryptor.Decrypt(s.Secret)
		if err != nil {
			return nil, errors.StateError(kind, "secret", err)
		}
		s.Secret = decrypted
	}
	return FromState(s)
}
