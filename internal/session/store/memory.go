// Package store persists end-user sessions. Session lifetime is enforced by
// the store: an expired session reads as sentinel.ErrNotFound.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecotrace/internal/session/models"
	"ecotrace/pkg/platform/sentinel"
)

// Clock abstracts time.Now for testability.
type Clock func() time.Time

type memoryEntry struct {
	session   *models.Session
	expiresAt time.Time
}

// Memory keeps sessions in a mutex-guarded map for tests and single-node use.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock
	items map[string]memoryEntry
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) MemoryOption {
	return func(s *Memory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemory constructs an empty in-memory session store.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	s := &Memory{
		ttl:   ttl,
		clock: time.Now,
		items: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores the session under its token.
func (s *Memory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.Token] = memoryEntry{
		session:   session,
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

// Find resolves a session token. Expired sessions read as not found.
func (s *Memory) Find(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[token]
	if !ok {
		return nil, fmt.Errorf("session: %w", sentinel.ErrNotFound)
	}
	if s.clock().After(entry.expiresAt) {
		delete(s.items, token)
		return nil, fmt.Errorf("session: %w", sentinel.ErrNotFound)
	}
	return entry.session, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *Memory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}
