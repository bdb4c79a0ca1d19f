package accesstoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Postgres persists access tokens in the access_tokens table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed access token store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create persists the token record keyed by hash.
func (s *Postgres) Create(ctx context.Context, t *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (token_hash, user_id, client_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, t.TokenHash, t.UserID, t.ClientID, t.CreatedAt); err != nil {
		return fmt.Errorf("create access token: %w", err)
	}
	return nil
}

// FindByHash resolves a bearer token hash to its record.
func (s *Postgres) FindByHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	var t models.AccessToken
	err := s.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, client_id, created_at
		FROM access_tokens
		WHERE token_hash = $1
	`, hash).Scan(&t.TokenHash, &t.UserID, &t.ClientID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access token: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find access token: %w", err)
	}
	return &t, nil
}

// CountByUserAndClient reports how many tokens exist for a (user, client) pair.
func (s *Postgres) CountByUserAndClient(ctx context.Context, userID, clientID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM access_tokens WHERE user_id = $1 AND client_id = $2
	`, userID, clientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count access tokens: %w", err)
	}
	return n, nil
}
