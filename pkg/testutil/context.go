package testutil

import (
	"net/http"

	"ecotrace/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context, simulating what the
// session resolver middleware does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithSession adds both user ID and session ID to the request context, the
// typical state for a request carrying a valid session cookie.
func WithSession(req *http.Request, userID, sessionID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	if sessionID != "" {
		ctx = requestcontext.WithSessionID(ctx, sessionID)
	}
	return req.WithContext(ctx)
}
