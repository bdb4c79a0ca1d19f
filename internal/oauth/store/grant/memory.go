// Package grant persists single-use authorization codes.
//
// Error contract, shared by all implementations:
//   - RedeemAndInvalidate returns sentinel.ErrNotFound for unknown or already
//     redeemed codes.
//   - RedeemAndInvalidate is atomic: for one code, concurrent redemptions see
//     exactly one success. A code must never yield two access tokens.
//   - Expiry is NOT evaluated here. A redeemed-but-expired grant is returned
//     so the caller can report grant_expired instead of an unknown code.
package grant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Memory keeps grants in a mutex-guarded map for tests and single-node use.
type Memory struct {
	mu     sync.Mutex
	grants map[string]*models.Grant
}

// NewMemory constructs an empty in-memory grant store.
func NewMemory() *Memory {
	return &Memory{grants: make(map[string]*models.Grant)}
}

// Issue persists a freshly built grant under its code.
func (s *Memory) Issue(_ context.Context, g *models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.grants[g.Code]; exists {
		return fmt.Errorf("grant code collision: %w", sentinel.ErrConflict)
	}
	s.grants[g.Code] = g
	return nil
}

// RedeemAndInvalidate looks up and deletes the grant in one critical section.
func (s *Memory) RedeemAndInvalidate(_ context.Context, code string) (*models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[code]
	if !ok {
		return nil, fmt.Errorf("grant: %w", sentinel.ErrNotFound)
	}
	delete(s.grants, code)
	return g, nil
}

// DeleteExpired removes grants whose expiry has passed. Lazy expiry at redeem
// time keeps correctness; this is an optional hygiene task.
func (s *Memory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for code, g := range s.grants {
		if g.IsExpired(now) {
			delete(s.grants, code)
			deleted++
		}
	}
	return deleted, nil
}
