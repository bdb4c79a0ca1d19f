package session

import (
	"context"
	"net/http"
	"strings"

	oauthmodels "ecotrace/internal/oauth/models"
	"ecotrace/pkg/requestcontext"
	"ecotrace/pkg/tokens"
)

// CookieName is the session cookie set by login and read by the resolver.
const CookieName = "ecotrace_session"

// BearerResolver resolves a hashed bearer token to its record. Backed by the
// access token store.
type BearerResolver interface {
	FindByHash(ctx context.Context, hash string) (*oauthmodels.AccessToken, error)
}

// Resolver enriches requests with the authenticated user. It never rejects:
// endpoints decide themselves what an anonymous request means.
type Resolver struct {
	sessions *Service
	bearer   BearerResolver
}

// NewResolver constructs a Resolver. bearer may be nil when bearer
// authentication is not wanted on a listener.
func NewResolver(sessions *Service, bearer BearerResolver) *Resolver {
	return &Resolver{sessions: sessions, bearer: bearer}
}

// Middleware resolves the session cookie, or failing that a bearer access
// token, into a user id in the request context.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
			if userID, err := rv.sessions.Resolve(ctx, cookie.Value); err == nil && userID != "" {
				ctx = requestcontext.WithUserID(ctx, userID)
				ctx = requestcontext.WithSessionID(ctx, cookie.Value)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		if rv.bearer != nil {
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && bearer != "" {
				if record, err := rv.bearer.FindByHash(ctx, tokens.Hash(bearer)); err == nil {
					ctx = requestcontext.WithUserID(ctx, record.UserID)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
