// Package accesstoken persists issued bearer tokens by hash. The clear token
// is never stored; later bearer authentication compares hashes.
package accesstoken

import (
	"context"
	"fmt"
	"sync"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Memory keeps access tokens in a mutex-guarded map.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]*models.AccessToken
}

// NewMemory constructs an empty in-memory access token store.
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]*models.AccessToken)}
}

// Create persists the token record keyed by hash.
func (s *Memory) Create(_ context.Context, t *models.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.TokenHash] = t
	return nil
}

// FindByHash resolves a bearer token hash to its record.
func (s *Memory) FindByHash(_ context.Context, hash string) (*models.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[hash]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("access token: %w", sentinel.ErrNotFound)
}

// CountByUserAndClient reports how many tokens exist for a (user, client)
// pair. Used by tests and by operational tooling.
func (s *Memory) CountByUserAndClient(_ context.Context, userID, clientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && t.ClientID == clientID {
			n++
		}
	}
	return n, nil
}
