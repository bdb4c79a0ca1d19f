// Package tokens generates and hashes the opaque random values used across the
// authorization flow: transaction IDs, grant codes, access tokens, and session
// tokens.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// uidAlphabet is the character set for short human-copyable identifiers.
const uidAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UID returns a random identifier of exactly n characters drawn from an
// alphanumeric alphabet. Used for transaction IDs (n=8).
func UID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; an error here means
		// the process cannot safely continue issuing credentials.
		panic("tokens: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = uidAlphabet[int(b)%len(uidAlphabet)]
	}
	return string(buf)
}

// Opaque returns a URL-safe random token carrying 32 bytes of entropy.
// Used for grant codes, access tokens and session tokens.
func Opaque() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("tokens: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Hash returns the hex-encoded SHA-256 digest of token. Only hashes are
// persisted; the clear value is returned to the caller exactly once.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
