package models

import "strings"

// Scope members a client may request on the OIDC entry point. Plain OAuth2
// flows carry an empty scope.
const (
	ScopeOpenID    = "openid"
	ScopeProfile   = "profile"
	ScopeEmail     = "email"
	ScopeCompanies = "companies"
)

var allowedScopes = map[string]bool{
	ScopeOpenID:    true,
	ScopeProfile:   true,
	ScopeEmail:     true,
	ScopeCompanies: true,
}

// ParseScope splits a space-delimited scope parameter into its members,
// dropping empty tokens. No validation happens here: the raw request scope is
// stored on the transaction and validated at Decision time.
func ParseScope(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ValidateScope reports whether every member belongs to the allowed OIDC scope
// vocabulary. The first unknown member is returned for error reporting.
func ValidateScope(scope []string) (string, bool) {
	for _, s := range scope {
		if !allowedScopes[s] {
			return s, false
		}
	}
	return "", true
}

// HasScope reports membership of s in scope.
func HasScope(scope []string, s string) bool {
	for _, member := range scope {
		if member == s {
			return true
		}
	}
	return false
}
