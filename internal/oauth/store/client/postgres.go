package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Postgres reads client registrations from the applications table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client registry lookup.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindByID resolves a client_id to its registration.
func (s *Postgres) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	var redirectURIs pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(logo_url, ''), client_secret, redirect_uris, open_id_enabled
		FROM applications
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.LogoURL, &c.Secret, &redirectURIs, &c.OpenIDEnabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	c.RedirectURIs = redirectURIs
	return &c, nil
}
