package handler

import (
	"context"
	"errors"
	"net/http"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/httputil"
	"ecotrace/pkg/requestcontext"
)

// flowErrorMapping is the single table translating a protocol failure kind
// into an HTTP status and OAuth2 error code.
var flowErrorMapping = map[models.FlowErrorKind]struct {
	status int
	code   string
}{
	models.FlowUnauthorizedClient:    {http.StatusForbidden, "unauthorized_client"},
	models.FlowInvalidScope:          {http.StatusBadRequest, "invalid_scope"},
	models.FlowInvalidTransaction:    {http.StatusBadRequest, "invalid_request"},
	models.FlowUnauthenticatedClient: {http.StatusUnauthorized, "invalid_client"},
	models.FlowInvalidGrant:          {http.StatusForbidden, "invalid_grant"},
}

// ErrorResponse is the OAuth2 error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	var flowErr *models.FlowError
	if !errors.As(err, &flowErr) {
		if h.logger != nil {
			h.logger.ErrorContext(ctx, "flow operation failed",
				"operation", operation,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	// A missing end-user session has its own legacy envelope, without an
	// error_description field.
	if flowErr.Kind == models.FlowUnauthenticatedUser {
		httputil.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: flowErr.Description})
		return
	}

	mapping, ok := flowErrorMapping[flowErr.Kind]
	if !ok {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, mapping.status, ErrorResponse{
		Error:            mapping.code,
		ErrorDescription: flowErr.Description,
	})
}
