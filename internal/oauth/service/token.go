package service

import (
	"context"
	"errors"

	"ecotrace/internal/audit"
	"ecotrace/internal/oauth/authenticator"
	"ecotrace/internal/oauth/models"
	dErrors "ecotrace/pkg/domain-errors"
	"ecotrace/pkg/platform/sentinel"
)

// TokenRequest carries a token exchange: client credentials plus the form
// body. OpenID marks the entry point flavor.
type TokenRequest struct {
	Credentials authenticator.Credentials
	GrantType   string
	Code        string
	RedirectURI string
	OpenID      bool
}

// TokenResult is a successful exchange. IdentityToken is set only on the
// OpenID entry point.
type TokenResult struct {
	AccessToken   string
	TokenType     string
	IdentityToken string
	UserEmail     string
	UserName      string
}

// Token authenticates the client and redeems the authorization code for an
// access token, plus an identity token on the OpenID entry point. Redemption
// invalidates the code before any check, so a failed exchange still burns it.
func (s *Service) Token(ctx context.Context, req TokenRequest) (*TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.Token")
	defer span.End()
	start := s.now()

	client, err := s.authenticator.Authenticate(ctx, req.Credentials)
	if err != nil {
		s.logAudit(ctx, audit.EventClientAuthFailed, "", req.Credentials.ID)
		s.metrics.IncrementTokenOutcome("unauthenticated_client")
		return nil, models.ErrUnauthenticatedClient()
	}

	if req.GrantType != "authorization_code" {
		s.metrics.IncrementTokenOutcome("unsupported_grant_type")
		return nil, models.ErrUnsupportedGrantType(req.GrantType)
	}

	grant, err := s.grants.RedeemAndInvalidate(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementTokenOutcome("invalid_code")
			return nil, models.ErrTokenInvalidCode()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem grant")
	}

	if grant.ClientID != client.ID {
		s.metrics.IncrementTokenOutcome("client_mismatch")
		if req.OpenID {
			// On the OpenID entry point a grant belonging to another client
			// is reported as an unknown code, not as a client identity
			// problem.
			return nil, models.ErrTokenInvalidCode()
		}
		return nil, models.ErrTokenInvalidClientID()
	}
	if grant.RedirectURI != req.RedirectURI {
		s.metrics.IncrementTokenOutcome("redirect_mismatch")
		return nil, models.ErrTokenInvalidRedirectURI()
	}
	if grant.IsExpired(s.now()) {
		s.metrics.IncrementTokenOutcome("expired")
		return nil, models.ErrTokenGrantExpired()
	}
	if req.OpenID && !grant.OpenIDEnabled {
		s.metrics.IncrementTokenOutcome("not_openid_grant")
		return nil, models.ErrTokenInvalidCode()
	}

	user, err := s.users.FindByID(ctx, grant.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	accessToken, err := s.issuer.IssueAccessToken(ctx, user.ID, client.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	result := &TokenResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		UserEmail:   user.Email,
		UserName:    user.Name,
	}

	if req.OpenID {
		var memberships []models.CompanyMembership
		if models.HasScope(grant.Scope, models.ScopeCompanies) {
			memberships, err = s.users.CompanyMemberships(ctx, user.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company memberships")
			}
		}
		identityToken, err := s.issuer.IssueIdentityToken(user, memberships, client.ID, grant.Scope, grant.Nonce)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign identity token")
		}
		result.IdentityToken = identityToken
	}

	s.logAudit(ctx, audit.EventGrantRedeemed, user.ID, client.ID)
	s.metrics.IncrementTokenOutcome("ok")
	s.metrics.ObserveTokenLatency(start)

	return result, nil
}
