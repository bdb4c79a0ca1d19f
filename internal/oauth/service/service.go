// Package service orchestrates the authorization-code flow: authorize starts a
// consent transaction, decision turns it into a single-use grant, and token
// redeems the grant for credentials. Storage, signing and client
// authentication are injected so transports and tests can swap them.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ecotrace/internal/audit"
	"ecotrace/internal/oauth/authenticator"
	"ecotrace/internal/oauth/metrics"
	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/requestcontext"
)

// DefaultGrantTTL bounds how long a consent decision stays redeemable.
const DefaultGrantTTL = 10 * time.Minute

type ClientStore interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CompanyMemberships(ctx context.Context, userID string) ([]models.CompanyMembership, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Consume(ctx context.Context, id string) (*models.Transaction, error)
}

type GrantStore interface {
	Issue(ctx context.Context, g *models.Grant) error
	RedeemAndInvalidate(ctx context.Context, code string) (*models.Grant, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type TokenIssuer interface {
	IssueAccessToken(ctx context.Context, userID, clientID string) (string, error)
	IssueIdentityToken(user *models.User, memberships []models.CompanyMembership, clientID string, scope []string, nonce string) (string, error)
}

type ClientAuthenticator interface {
	Authenticate(ctx context.Context, creds authenticator.Credentials) (*models.Client, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the authorization-code flow.
type Service struct {
	clients       ClientStore
	users         UserStore
	transactions  TransactionStore
	grants        GrantStore
	issuer        TokenIssuer
	authenticator ClientAuthenticator

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	now            func() time.Time
	grantTTL       time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithGrantTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.grantTTL = ttl
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service.
func New(
	clients ClientStore,
	users UserStore,
	transactions TransactionStore,
	grants GrantStore,
	issuer TokenIssuer,
	authenticator ClientAuthenticator,
	opts ...Option,
) *Service {
	s := &Service{
		clients:       clients,
		users:         users,
		transactions:  transactions,
		grants:        grants,
		issuer:        issuer,
		authenticator: authenticator,
		tracer:        otel.Tracer("ecotrace/oauth"),
		now:           time.Now,
		grantTTL:      DefaultGrantTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepExpiredGrants removes grants past their expiry. Redemption already
// rejects expired grants; this keeps storage from accumulating dead rows.
func (s *Service) SweepExpiredGrants(ctx context.Context) (int, error) {
	deleted, err := s.grants.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.metrics.AddGrantsSwept(deleted)
		if s.logger != nil {
			s.logger.InfoContext(ctx, "expired grants swept", "deleted", deleted)
		}
	}
	return deleted, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID, clientID string) {
	attributes := []any{"event", string(event), "log_type", "audit", "client_id", clientID}
	if userID != "" {
		attributes = append(attributes, "user_id", userID)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), attributes...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		UserID:    userID,
		ClientID:  clientID,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
	})
}
