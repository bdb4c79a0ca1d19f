// Package authenticator verifies the identity of a client application at the
// token endpoint.
package authenticator

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// ErrUnauthenticated is the single outcome surfaced to callers for every
// authentication failure. The classified causes below wrap it so tests and
// logs can tell them apart while HTTP responses cannot. An attacker must
// not learn whether a client id exists.
var (
	ErrUnauthenticated    = errors.New("unauthenticated client")
	ErrMissingCredentials = fmt.Errorf("missing credentials: %w", ErrUnauthenticated)
	ErrUnknownClient      = fmt.Errorf("unknown client: %w", ErrUnauthenticated)
	ErrSecretMismatch     = fmt.Errorf("secret mismatch: %w", ErrUnauthenticated)
)

// ClientRegistry resolves a client_id to its registration.
type ClientRegistry interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

// Credentials carry a client id/secret pair extracted from a token request.
type Credentials struct {
	ID     string
	Secret string
}

// CredentialsFromRequest extracts client credentials from the request. The
// HTTP Basic Authorization header takes precedence; otherwise the form body
// fields client_id/client_secret are used. The caller must have parsed the
// form already. Returns ok=false when neither method is present.
func CredentialsFromRequest(r *http.Request) (Credentials, bool) {
	if id, secret, ok := r.BasicAuth(); ok {
		return Credentials{ID: id, Secret: secret}, true
	}
	id := r.PostFormValue("client_id")
	secret := r.PostFormValue("client_secret")
	if id == "" && secret == "" {
		return Credentials{}, false
	}
	return Credentials{ID: id, Secret: secret}, true
}

// Authenticator checks client credentials against the registry.
type Authenticator struct {
	clients ClientRegistry
}

// New constructs an Authenticator.
func New(clients ClientRegistry) *Authenticator {
	return &Authenticator{clients: clients}
}

// Authenticate resolves the credentials to a registered client whose secret
// matches. The comparison is constant-time.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*models.Client, error) {
	if creds.ID == "" || creds.Secret == "" {
		return nil, ErrMissingCredentials
	}

	client, err := a.clients.FindByID(ctx, creds.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUnknownClient
		}
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(creds.Secret)) != 1 {
		return nil, ErrSecretMismatch
	}
	return client, nil
}
