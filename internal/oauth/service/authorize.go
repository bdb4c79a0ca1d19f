package service

import (
	"context"
	"errors"

	"ecotrace/internal/audit"
	"ecotrace/internal/oauth/models"
	dErrors "ecotrace/pkg/domain-errors"
	"ecotrace/pkg/platform/sentinel"
)

// AuthorizeRequest carries the query parameters of an authorize call plus the
// session user resolved by middleware. OpenID marks the entry point flavor.
type AuthorizeRequest struct {
	UserID       string
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	Nonce        string
	OpenID       bool
}

// AuthorizeResult is the consent payload rendered to the UI: who is asking
// for access, on whose behalf, and the transaction handle the decision call
// must present.
type AuthorizeResult struct {
	TransactionID string
	RedirectURI   string
	ClientName    string
	ClientLogoURL string
	UserName      string
}

// Authorize validates an authorization request and opens a consent
// transaction. The transaction stores the raw requested scope; scope
// validation happens at decision time.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.Authorize")
	defer span.End()

	if req.UserID == "" {
		s.metrics.IncrementFlowOutcome("authorize", "unauthenticated")
		return nil, models.ErrUnauthenticatedUser()
	}
	if req.ResponseType != "code" {
		s.metrics.IncrementFlowOutcome("authorize", "unsupported_response_type")
		return nil, models.ErrUnsupportedResponseType(req.ResponseType)
	}

	client, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementFlowOutcome("authorize", "unknown_client")
			return nil, models.ErrInvalidClientID()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if !client.AllowsRedirectURI(req.RedirectURI) {
		s.metrics.IncrementFlowOutcome("authorize", "invalid_redirect_uri")
		return nil, models.ErrInvalidRedirectURI()
	}
	if req.OpenID && !client.OpenIDEnabled {
		s.metrics.IncrementFlowOutcome("authorize", "openid_not_enabled")
		return nil, models.ErrOpenIDNotEnabled()
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Session points at a user the directory no longer knows.
			s.metrics.IncrementFlowOutcome("authorize", "unauthenticated")
			return nil, models.ErrUnauthenticatedUser()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	tx := models.NewTransaction(
		user.ID,
		client.ID,
		req.RedirectURI,
		models.ParseScope(req.Scope),
		req.Nonce,
		req.OpenID,
		s.now(),
	)
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store transaction")
	}

	s.logAudit(ctx, audit.EventAuthorizationRequested, user.ID, client.ID)
	s.metrics.IncrementFlowOutcome("authorize", "ok")

	return &AuthorizeResult{
		TransactionID: tx.ID,
		RedirectURI:   tx.RedirectURI,
		ClientName:    client.Name,
		ClientLogoURL: client.LogoURL,
		UserName:      user.Name,
	}, nil
}
