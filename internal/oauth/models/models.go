// Package models holds the domain records of the authorization-code flow and
// the closed set of protocol errors the flow can produce.
package models

import (
	"time"

	"ecotrace/pkg/tokens"
)

// Client is the read-only projection of a registered third-party application.
// The registry that creates and mutates these records lives outside this
// subsystem; during a protocol exchange a Client is immutable.
type Client struct {
	ID            string
	Name          string
	LogoURL       string
	Secret        string // compared in constant time, never logged
	RedirectURIs  []string
	OpenIDEnabled bool
}

// AllowsRedirectURI reports whether uri is an exact member of the client's
// redirect allow-list. No normalization: prefix or host matching would widen
// the attack surface.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}

// User is the read-only projection of an end-user from the directory.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Phone         string
	PasswordHash  string // bcrypt, used only by the session collaborator
}

// CompanyVerificationStatus mirrors the verification workflow of the company
// directory.
type CompanyVerificationStatus string

const (
	CompanyToBeVerified CompanyVerificationStatus = "TO_BE_VERIFIED"
	CompanyLetterSent   CompanyVerificationStatus = "LETTER_SENT"
	CompanyVerified     CompanyVerificationStatus = "VERIFIED"
)

// CompanyMembership captures one user-to-company association with the company
// fields disclosed under the "companies" scope.
type CompanyMembership struct {
	Role               string
	CompanyID          string
	SIRET              string
	VATNumber          string
	Name               string
	GivenName          string
	Types              []string
	VerificationStatus CompanyVerificationStatus
}

// Verified reports whether the company reached the fully verified state. Any
// intermediate status (letter sent, pending) stays false.
func (m *CompanyMembership) Verified() bool {
	return m.VerificationStatus == CompanyVerified
}

// TransactionIDLength is the length of the short-lived consent transaction ID
// handed to the consent UI.
const TransactionIDLength = 8

// Transaction is the ephemeral record of a pending authorization request,
// created by Authorize and consumed exactly once by Decision.
type Transaction struct {
	ID          string
	UserID      string
	ClientID    string
	RedirectURI string
	Scope       []string // raw as requested; validated at Decision time
	Nonce       string
	OpenID      bool // true when created on the /oidc entry point
	CreatedAt   time.Time
}

// NewTransaction builds a transaction with a fresh random ID.
func NewTransaction(userID, clientID, redirectURI string, scope []string, nonce string, openID bool, now time.Time) *Transaction {
	return &Transaction{
		ID:          tokens.UID(TransactionIDLength),
		UserID:      userID,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scope:       scope,
		Nonce:       nonce,
		OpenID:      openID,
		CreatedAt:   now,
	}
}

// Grant is a single-use authorization code bound to the
// (client, user, redirect URI, scope, nonce) tuple decided at consent time.
type Grant struct {
	Code          string
	UserID        string
	ClientID      string
	RedirectURI   string // copied verbatim from the transaction
	Scope         []string
	OpenIDEnabled bool
	Nonce         string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// NewGrant builds a grant with a fresh opaque code and TTL-derived expiry.
func NewGrant(userID, clientID, redirectURI string, scope []string, openID bool, nonce string, now time.Time, ttl time.Duration) *Grant {
	return &Grant{
		Code:          tokens.Opaque(),
		UserID:        userID,
		ClientID:      clientID,
		RedirectURI:   redirectURI,
		Scope:         scope,
		OpenIDEnabled: openID,
		Nonce:         nonce,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// IsExpired is a pure comparison against the grant's expiry.
func (g *Grant) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// AccessToken is the persisted form of an issued bearer token. Only the
// SHA-256 hash of the bearer string is stored; the clear value is returned to
// the client exactly once at redemption.
type AccessToken struct {
	TokenHash string
	UserID    string
	ClientID  string
	CreatedAt time.Time
}
