// Package audit captures the security-relevant actions of the authorization
// flow as structured events. Events are emitted from domain logic and fanned
// out to sinks (log, Kafka) by a Publisher; the flow never blocks on a sink.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	ClientID  string    `json:"client_id"`
	Action    string    `json:"action"`
	RequestID string    `json:"request_id,omitempty"`
}

// AuditEvent names one auditable action.
type AuditEvent string

const (
	EventAuthorizationRequested AuditEvent = "authorization_requested"
	EventConsentGranted         AuditEvent = "consent_granted"
	EventConsentDenied          AuditEvent = "consent_denied"
	EventGrantRedeemed          AuditEvent = "grant_redeemed"
	EventClientAuthFailed       AuditEvent = "client_auth_failed"
	EventUserLoggedIn           AuditEvent = "user_logged_in"
	EventUserLoggedOut          AuditEvent = "user_logged_out"
)
