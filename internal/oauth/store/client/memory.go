// Package client is the read-only lookup into the application registry.
// Registration CRUD lives in another subsystem; this store only resolves a
// client_id during a protocol exchange.
package client

import (
	"context"
	"fmt"
	"sync"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Memory serves registered clients from a map, seeded at construction or via
// Add. Used in tests and dev mode.
type Memory struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

// NewMemory constructs a memory registry seeded with the given clients.
func NewMemory(clients ...*models.Client) *Memory {
	s := &Memory{clients: make(map[string]*models.Client)}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

// Add registers a client. Dev/test helper; production registration is out of
// scope here.
func (s *Memory) Add(c *models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// FindByID resolves a client_id to its registration.
func (s *Memory) FindByID(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("client %s: %w", id, sentinel.ErrNotFound)
}
