package models

import "fmt"

// FlowErrorKind is the closed set of protocol failure classes. The HTTP layer
// maps each kind to (status, OAuth2 error code) exactly once, so the whole
// error surface of the subsystem is auditable in one table.
type FlowErrorKind string

const (
	// FlowUnauthenticatedUser: no end-user session on authorize/decision.
	FlowUnauthenticatedUser FlowErrorKind = "unauthenticated_user"
	// FlowUnauthorizedClient: unknown client, disallowed redirect URI, or
	// OIDC requested on a client without OpenID enabled.
	FlowUnauthorizedClient FlowErrorKind = "unauthorized_client"
	// FlowInvalidScope: a requested scope member is outside the vocabulary.
	FlowInvalidScope FlowErrorKind = "invalid_scope"
	// FlowInvalidTransaction: the consent transaction is missing, expired or
	// already consumed.
	FlowInvalidTransaction FlowErrorKind = "invalid_transaction"
	// FlowUnauthenticatedClient: client credential check failed at the token
	// endpoint.
	FlowUnauthenticatedClient FlowErrorKind = "unauthenticated_client"
	// FlowInvalidGrant: the grant code cannot be redeemed (unknown code,
	// client mismatch, redirect mismatch, or expiry). One machine code,
	// distinct human descriptions.
	FlowInvalidGrant FlowErrorKind = "invalid_grant"
)

// FlowError is a protocol failure outcome. Description is safe to surface to
// the caller as OAuth2 error_description.
type FlowError struct {
	Kind        FlowErrorKind
	Description string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// Human-readable descriptions pinned by the external contract. Clients match
// on these strings; do not rephrase.
const (
	DescInvalidClientID    = "Invalid client id"
	DescInvalidRedirectURI = "Invalid redirect uri"
	DescOpenIDNotEnabled   = "OpenId Connect is not enabled on this application"
	DescInvalidCode        = "Invalid authorization code"
	DescGrantExpired       = "Grant has expired"
	DescInvalidTransaction = "Unable to load authorization transaction"
)

// Canned authorize-time failures.

func ErrUnauthenticatedUser() *FlowError {
	return &FlowError{Kind: FlowUnauthenticatedUser, Description: "Not Authorized"}
}

func ErrInvalidClientID() *FlowError {
	return &FlowError{Kind: FlowUnauthorizedClient, Description: DescInvalidClientID}
}

func ErrInvalidRedirectURI() *FlowError {
	return &FlowError{Kind: FlowUnauthorizedClient, Description: DescInvalidRedirectURI}
}

func ErrOpenIDNotEnabled() *FlowError {
	return &FlowError{Kind: FlowUnauthorizedClient, Description: DescOpenIDNotEnabled}
}

func ErrInvalidScope(member string) *FlowError {
	return &FlowError{Kind: FlowInvalidScope, Description: fmt.Sprintf("Invalid scope %q", member)}
}

func ErrInvalidTransaction() *FlowError {
	return &FlowError{Kind: FlowInvalidTransaction, Description: DescInvalidTransaction}
}

// Canned token-exchange failures. All four share the invalid_grant kind and
// differ only in description.

func ErrTokenInvalidCode() *FlowError {
	return &FlowError{Kind: FlowInvalidGrant, Description: DescInvalidCode}
}

func ErrTokenInvalidClientID() *FlowError {
	return &FlowError{Kind: FlowInvalidGrant, Description: DescInvalidClientID}
}

func ErrTokenInvalidRedirectURI() *FlowError {
	return &FlowError{Kind: FlowInvalidGrant, Description: DescInvalidRedirectURI}
}

func ErrTokenGrantExpired() *FlowError {
	return &FlowError{Kind: FlowInvalidGrant, Description: DescGrantExpired}
}

func ErrUnauthenticatedClient() *FlowError {
	return &FlowError{Kind: FlowUnauthenticatedClient, Description: "Client authentication failed"}
}

func ErrUnsupportedGrantType(got string) *FlowError {
	return &FlowError{Kind: FlowInvalidGrant, Description: fmt.Sprintf("Unsupported grant_type %q", got)}
}

func ErrUnsupportedResponseType(got string) *FlowError {
	return &FlowError{Kind: FlowUnauthorizedClient, Description: fmt.Sprintf("Unsupported response_type %q", got)}
}
