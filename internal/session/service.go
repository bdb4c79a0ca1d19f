// Package session is the end-user login collaborator: it authenticates a
// user against the directory and keeps the browser session that the
// authorization flow requires. It is deliberately minimal; account lifecycle
// lives in another subsystem.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ecotrace/internal/audit"
	oauthmodels "ecotrace/internal/oauth/models"
	"ecotrace/internal/session/models"
	dErrors "ecotrace/pkg/domain-errors"
	"ecotrace/pkg/platform/sentinel"
	"ecotrace/pkg/requestcontext"
	"ecotrace/pkg/tokens"
)

type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*oauthmodels.User, error)
}

type Store interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles login, logout and session resolution.
type Service struct {
	users    UserDirectory
	sessions Store

	logger         *slog.Logger
	auditPublisher AuditPublisher
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
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
func New(users UserDirectory, sessions Store, opts ...Option) *Service {
	s := &Service{users: users, sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the email/password pair and opens a session. Unknown email
// and wrong password collapse to the same error so the endpoint is not a
// user-enumeration oracle.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, invalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}

	session := &models.Session{
		Token:     tokens.Opaque(),
		UserID:    user.ID,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	s.logAudit(ctx, audit.EventUserLoggedIn, user.ID)
	return session, nil
}

// Logout drops the session. Idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	s.logAudit(ctx, audit.EventUserLoggedOut, session.UserID)
	return nil
}

// Resolve maps a session token to its user id, or "" when the session is
// unknown or expired.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return session.UserID, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"event", string(event),
			"log_type", "audit",
			"user_id", userID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: s.now(),
		UserID:    userID,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
	})
}
