// Package middleware holds the cross-cutting HTTP middleware shared by both
// listeners.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"ecotrace/pkg/requestcontext"
)

// RequestID assigns every request a correlation id, honoring an incoming
// X-Request-Id from a trusted proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
