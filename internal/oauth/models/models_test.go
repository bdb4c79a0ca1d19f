package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAllowsRedirectURI(t *testing.T) {
	client := &Client{
		ID:           "app1",
		RedirectURIs: []string{"https://app1.example/callback", "https://app1.example/alt"},
	}

	tests := []struct {
		name string
		uri  string
		want bool
	}{
		{"exact member", "https://app1.example/callback", true},
		{"second member", "https://app1.example/alt", true},
		{"prefix of a member", "https://app1.example", false},
		{"member plus suffix", "https://app1.example/callback/extra", false},
		{"case difference", "https://APP1.example/callback", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.AllowsRedirectURI(tt.uri))
		})
	}
}

func TestNewTransaction(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tx := NewTransaction("u1", "app1", "https://cb", []string{"openid", "email"}, "n0nce", true, now)

	require.Len(t, tx.ID, TransactionIDLength)
	assert.Equal(t, "u1", tx.UserID)
	assert.Equal(t, "app1", tx.ClientID)
	assert.True(t, tx.OpenID)
	assert.Equal(t, now, tx.CreatedAt)

	other := NewTransaction("u1", "app1", "https://cb", nil, "", false, now)
	assert.NotEqual(t, tx.ID, other.ID)
}

func TestGrantExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	grant := NewGrant("u1", "app1", "https://cb", []string{"openid"}, true, "xyz", now, 10*time.Minute)

	assert.GreaterOrEqual(t, len(grant.Code), 22, "code must carry at least 16 bytes of entropy")
	assert.False(t, grant.IsExpired(now))
	assert.False(t, grant.IsExpired(now.Add(10*time.Minute)), "expiry boundary is inclusive")
	assert.True(t, grant.IsExpired(now.Add(10*time.Minute+time.Second)))
}

func TestCompanyVerified(t *testing.T) {
	assert.True(t, (&CompanyMembership{VerificationStatus: CompanyVerified}).Verified())
	assert.False(t, (&CompanyMembership{VerificationStatus: CompanyToBeVerified}).Verified())
	assert.False(t, (&CompanyMembership{VerificationStatus: CompanyLetterSent}).Verified())
	assert.False(t, (&CompanyMembership{}).Verified())
}

func TestParseScope(t *testing.T) {
	assert.Nil(t, ParseScope(""))
	assert.Equal(t, []string{"openid"}, ParseScope("openid"))
	assert.Equal(t, []string{"openid", "profile", "email"}, ParseScope("openid profile  email"))
}

func TestValidateScope(t *testing.T) {
	_, ok := ValidateScope([]string{"openid", "profile", "email", "companies"})
	assert.True(t, ok)

	_, ok = ValidateScope(nil)
	assert.True(t, ok, "empty scope is valid (plain OAuth2)")

	member, ok := ValidateScope([]string{"openid", "profile", "exotic"})
	assert.False(t, ok)
	assert.Equal(t, "exotic", member)
}
