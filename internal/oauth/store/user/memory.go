// Package user is the read-only directory lookup used to resolve a session
// user and to assemble identity-token claims. The user lifecycle (signup,
// verification, company membership management) is another subsystem.
package user

import (
	"context"
	"fmt"
	"sync"

	"ecotrace/internal/oauth/models"
	"ecotrace/pkg/platform/sentinel"
)

// Memory serves users and their company memberships from maps.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	byEmail     map[string]string
	memberships map[string][]models.CompanyMembership
}

// NewMemory constructs an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*models.User),
		byEmail:     make(map[string]string),
		memberships: make(map[string][]models.CompanyMembership),
	}
}

// Add registers a user with optional company memberships. Dev/test helper.
func (s *Memory) Add(u *models.User, companies ...models.CompanyMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	s.memberships[u.ID] = companies
}

// FindByID resolves a user ID to its profile.
func (s *Memory) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
}

// FindByEmail resolves an email address to a profile. Used by the session
// collaborator's login handler.
func (s *Memory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[email]; ok {
		return s.users[id], nil
	}
	return nil, fmt.Errorf("user: %w", sentinel.ErrNotFound)
}

// CompanyMemberships lists the companies a user belongs to, with the fields
// disclosed under the companies scope.
func (s *Memory) CompanyMemberships(_ context.Context, userID string) ([]models.CompanyMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memberships[userID], nil
}
