// Package handler exposes the authorization flow over HTTP. The same three
// endpoints are mounted twice, under /oauth2 and /oidc; the mount decides the
// flavor flag passed to the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"ecotrace/internal/oauth/authenticator"
	"ecotrace/internal/oauth/service"
	"ecotrace/pkg/platform/httputil"
	"ecotrace/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks

// Service defines the flow operations the handler needs.
type Service interface {
	Authorize(ctx context.Context, req service.AuthorizeRequest) (*service.AuthorizeResult, error)
	Decision(ctx context.Context, req service.DecisionRequest) (*service.DecisionResult, error)
	Token(ctx context.Context, req service.TokenRequest) (*service.TokenResult, error)
}

// Handler wires the flow endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the flow endpoints under /oauth2 and /oidc.
func (h *Handler) Register(r chi.Router) {
	mounts := []struct {
		prefix string
		openID bool
	}{
		{"/oauth2", false},
		{"/oidc", true},
	}
	for _, mount := range mounts {
		openID := mount.openID
		r.Route(mount.prefix, func(r chi.Router) {
			r.Get("/authorize", h.handleAuthorize(openID))
			r.Post("/authorize/decision", h.handleDecision(openID))
			r.Post("/token", h.handleToken(openID))
		})
	}
}

func (h *Handler) handleAuthorize(openID bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		// Scope is an OpenID Connect concept; plain OAuth2 grants carry none.
		var scope string
		if openID {
			scope = query.Get("scope")
		}

		result, err := h.service.Authorize(ctx, service.AuthorizeRequest{
			UserID:       requestcontext.UserID(ctx),
			ResponseType: query.Get("response_type"),
			ClientID:     query.Get("client_id"),
			RedirectURI:  query.Get("redirect_uri"),
			Scope:        scope,
			Nonce:        query.Get("nonce"),
			OpenID:       openID,
		})
		if err != nil {
			h.writeError(ctx, w, "authorize", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, authorizeResponseFrom(result))
	}
}

func (h *Handler) handleDecision(openID bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			h.writeError(ctx, w, "decision", err)
			return
		}
		_, cancelled := r.PostForm["cancel"]

		result, err := h.service.Decision(ctx, service.DecisionRequest{
			UserID:        requestcontext.UserID(ctx),
			TransactionID: r.PostFormValue("transaction_id"),
			Cancelled:     cancelled,
			Nonce:         r.URL.Query().Get("nonce"),
			OpenID:        openID,
		})
		if err != nil {
			h.writeError(ctx, w, "decision", err)
			return
		}

		location := result.RedirectURI
		if result.Denied {
			location += "?error=access_denied"
		} else {
			location += "?code=" + url.QueryEscape(result.Code)
		}
		http.Redirect(w, r, location, http.StatusFound)
	}
}

func (h *Handler) handleToken(openID bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			h.writeError(ctx, w, "token", err)
			return
		}
		creds, _ := authenticator.CredentialsFromRequest(r)

		result, err := h.service.Token(ctx, service.TokenRequest{
			Credentials: creds,
			GrantType:   r.PostFormValue("grant_type"),
			Code:        r.PostFormValue("code"),
			RedirectURI: r.PostFormValue("redirect_uri"),
			OpenID:      openID,
		})
		if err != nil {
			h.writeError(ctx, w, "token", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, tokenResponseFrom(result))
	}
}
