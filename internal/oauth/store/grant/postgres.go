package grant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Postgres persists grants in the grants table. Redemption is a single
// DELETE ... RETURNING statement so two concurrent redemptions of the same
// code cannot both succeed: the row-level delete is the arbiter.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed grant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Issue persists a freshly built grant.
func (s *Postgres) Issue(ctx context.Context, g *models.Grant) error {
	query := `
		INSERT INTO grants (code, user_id, client_id, redirect_uri, scope, open_id_enabled, nonce, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		g.Code, g.UserID, g.ClientID, g.RedirectURI,
		pq.Array(g.Scope), g.OpenIDEnabled, g.Nonce, g.CreatedAt, g.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("grant code collision: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("issue grant: %w", err)
	}
	return nil
}

// RedeemAndInvalidate deletes the grant row and returns it atomically.
func (s *Postgres) RedeemAndInvalidate(ctx context.Context, code string) (*models.Grant, error) {
	query := `
		DELETE FROM grants
		WHERE code = $1
		RETURNING code, user_id, client_id, redirect_uri, scope, open_id_enabled, COALESCE(nonce, ''), created_at, expires_at
	`
	var g models.Grant
	var scope pq.StringArray
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&g.Code, &g.UserID, &g.ClientID, &g.RedirectURI,
		&scope, &g.OpenIDEnabled, &g.Nonce, &g.CreatedAt, &g.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("redeem grant: %w", err)
	}
	g.Scope = scope
	return &g, nil
}

// DeleteExpired removes grants whose expiry has passed, returning the count.
func (s *Postgres) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grants WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired grants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired grants: %w", err)
	}
	return int(n), nil
}
