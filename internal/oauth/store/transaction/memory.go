// Package transaction stores pending authorization transactions between the
// authorize step and the consent decision.
//
// Error contract, shared by all implementations:
//   - Consume returns sentinel.ErrNotFound for unknown, expired or already
//     consumed transactions; the three cases are indistinguishable.
//   - Consume is atomic: concurrent consumers of the same ID see exactly one
//     success.
package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Clock abstracts time.Now for testability.
type Clock func() time.Time

type memoryEntry struct {
	tx        *models.Transaction
	expiresAt time.Time
}

// Memory keeps transactions in a mutex-guarded map for tests and single-node
// deployments without Redis.
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

// NewMemory constructs an empty in-memory transaction store.
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

// Create stores the transaction under its ID with a fresh TTL.
func (s *Memory) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tx.ID] = memoryEntry{tx: tx, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

// Consume removes and returns the transaction in one step. Expired entries
// behave identically to missing ones.
func (s *Memory) Consume(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.items, id)
	if s.clock().After(entry.expiresAt) {
		return nil, fmt.Errorf("transaction %s: %w", id, sentinel.ErrNotFound)
	}
	return entry.tx, nil
}
