package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Postgres reads users and company memberships from the directory tables.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directory lookup.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, name, email, email_verified, COALESCE(phone, ''), COALESCE(password_hash, '')`

func (s *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Phone, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// FindByID resolves a user ID to its profile.
func (s *Postgres) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanUser(row)
}

// FindByEmail resolves an email address to a profile.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanUser(row)
}

// CompanyMemberships lists the companies a user belongs to.
func (s *Postgres) CompanyMemberships(ctx context.Context, userID string) ([]models.CompanyMembership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ca.role, c.id, COALESCE(c.siret, ''), COALESCE(c.vat_number, ''),
		       c.name, COALESCE(c.given_name, ''), c.company_types, c.verification_status
		FROM company_associations ca
		JOIN companies c ON c.id = ca.company_id
		WHERE ca.user_id = $1
		ORDER BY ca.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list company memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.CompanyMembership
	for rows.Next() {
		var m models.CompanyMembership
		var types pq.StringArray
		if err := rows.Scan(&m.Role, &m.CompanyID, &m.SIRET, &m.VATNumber,
			&m.Name, &m.GivenName, &types, &m.VerificationStatus); err != nil {
			return nil, fmt.Errorf("scan company membership: %w", err)
		}
		m.Types = types
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list company memberships: %w", err)
	}
	return memberships, nil
}
