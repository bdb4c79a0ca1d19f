package service

import (
	"context"
	"errors"

	"ecotrace/internal/audit"
	"ecotrace/internal/oauth/models"
	dErrors "ecotrace/pkg/domain-errors"
	"ecotrace/pkg/platform/sentinel"
	"ecotrace/pkg/tokens"
)

// DecisionRequest carries a consent decision form plus the session user. A
// transaction can only be decided once; consuming it is the first step so a
// replayed form always fails.
type DecisionRequest struct {
	UserID        string
	TransactionID string
	Cancelled     bool
	Nonce         string
	OpenID        bool
}

// DecisionResult tells the transport where to redirect the browser. Exactly
// one of Code or Denied is set.
type DecisionResult struct {
	RedirectURI string
	Code        string
	Denied      bool
}

// Decision consumes the consent transaction and either issues a single-use
// grant or records the denial. The requested scope is validated here, against
// the vocabulary the identity token can project.
func (s *Service) Decision(ctx context.Context, req DecisionRequest) (*DecisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.Decision")
	defer span.End()

	if req.UserID == "" {
		s.metrics.IncrementFlowOutcome("decision", "unauthenticated")
		return nil, models.ErrUnauthenticatedUser()
	}

	tx, err := s.transactions.Consume(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementFlowOutcome("decision", "invalid_transaction")
			return nil, models.ErrInvalidTransaction()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume transaction")
	}
	// The transaction is bound to the user who saw the consent screen and to
	// the entry point flavor it was created on. A decision posted by another
	// session or to the other flavor is indistinguishable from a stale one.
	if tx.UserID != req.UserID || tx.OpenID != req.OpenID {
		s.metrics.IncrementFlowOutcome("decision", "invalid_transaction")
		return nil, models.ErrInvalidTransaction()
	}

	if req.Cancelled {
		s.logAudit(ctx, audit.EventConsentDenied, tx.UserID, tx.ClientID)
		s.metrics.IncrementFlowOutcome("decision", "denied")
		return &DecisionResult{RedirectURI: tx.RedirectURI, Denied: true}, nil
	}

	if member, ok := models.ValidateScope(tx.Scope); !ok {
		s.metrics.IncrementFlowOutcome("decision", "invalid_scope")
		return nil, models.ErrInvalidScope(member)
	}

	// The registration may have changed between authorize and decision.
	client, err := s.clients.FindByID(ctx, tx.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementFlowOutcome("decision", "unknown_client")
			return nil, models.ErrInvalidClientID()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if tx.OpenID && !client.OpenIDEnabled {
		s.metrics.IncrementFlowOutcome("decision", "openid_not_enabled")
		return nil, models.ErrOpenIDNotEnabled()
	}

	nonce := req.Nonce
	if nonce == "" {
		nonce = tx.Nonce
	}
	if nonce == "" && tx.OpenID {
		nonce = tokens.Opaque()
	}

	grant := models.NewGrant(
		tx.UserID,
		tx.ClientID,
		tx.RedirectURI,
		tx.Scope,
		tx.OpenID,
		nonce,
		s.now(),
		s.grantTTL,
	)
	if err := s.grants.Issue(ctx, grant); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue grant")
	}

	s.logAudit(ctx, audit.EventConsentGranted, tx.UserID, tx.ClientID)
	s.metrics.IncrementFlowOutcome("decision", "granted")

	return &DecisionResult{RedirectURI: tx.RedirectURI, Code: grant.Code}, nil
}
