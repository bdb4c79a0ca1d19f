// Package token mints the credentials handed out at grant redemption: opaque
// bearer access tokens, persisted by hash, and RS256-signed identity tokens
// whose claims are projected from the granted scope.
package token

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/tokens"
)

// AccessTokenStore persists issued bearer tokens.
type AccessTokenStore interface {
	Create(ctx context.Context, t *models.AccessToken) error
}

// Issuer mints access and identity tokens.
type Issuer struct {
	issuer string
	key    *rsa.PrivateKey
	store  AccessTokenStore
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the issuer's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer constructs an Issuer. issuer is the value of the iss claim on
// identity tokens; key signs them.
func NewIssuer(issuer string, key *rsa.PrivateKey, store AccessTokenStore, opts ...Option) *Issuer {
	i := &Issuer{
		issuer: issuer,
		key:    key,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IssueAccessToken mints an opaque bearer token for the (user, client) pair
// and persists its hash. The clear value is returned exactly once; it cannot
// be recovered from storage.
func (i *Issuer) IssueAccessToken(ctx context.Context, userID, clientID string) (string, error) {
	clear := tokens.Opaque()
	record := &models.AccessToken{
		TokenHash: tokens.Hash(clear),
		UserID:    userID,
		ClientID:  clientID,
		CreatedAt: i.now().UTC(),
	}
	if err := i.store.Create(ctx, record); err != nil {
		return "", fmt.Errorf("persist access token: %w", err)
	}
	return clear, nil
}

// companyClaim is the wire shape of one entry of the companies claim.
type companyClaim struct {
	Role      string   `json:"role"`
	ID        string   `json:"id"`
	SIRET     string   `json:"siret"`
	VATNumber string   `json:"vat_number"`
	Name      string   `json:"name"`
	GivenName string   `json:"given_name"`
	Types     []string `json:"types"`
	Verified  bool     `json:"verified"`
}

// IssueIdentityToken signs an RS256 identity token for user, audience-bound
// to clientID. Claims beyond iss/aud/sub are projected from scope: "email"
// discloses email and email_verified, "profile" discloses name and phone, and
// "companies" discloses the user's company memberships. The nonce claim is
// set only when non-empty. The JOSE header carries the algorithm alone.
func (i *Issuer) IssueIdentityToken(user *models.User, memberships []models.CompanyMembership, clientID string, scope []string, nonce string) (string, error) {
	claims := jwt.MapClaims{
		"iss": i.issuer,
		"aud": clientID,
		"sub": user.ID,
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	if models.HasScope(scope, models.ScopeEmail) {
		claims["email"] = user.Email
		claims["email_verified"] = user.EmailVerified
	}
	if models.HasScope(scope, models.ScopeProfile) {
		claims["name"] = user.Name
		claims["phone"] = user.Phone
	}
	if models.HasScope(scope, models.ScopeCompanies) {
		companies := make([]companyClaim, 0, len(memberships))
		for _, m := range memberships {
			companies = append(companies, companyClaim{
				Role:      m.Role,
				ID:        m.CompanyID,
				SIRET:     m.SIRET,
				VATNumber: m.VATNumber,
				Name:      m.Name,
				GivenName: m.GivenName,
				Types:     m.Types,
				Verified:  m.Verified(),
			})
		}
		claims["companies"] = companies
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	delete(tok.Header, "typ")
	signed, err := tok.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}
