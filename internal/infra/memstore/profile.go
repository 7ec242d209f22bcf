// Package memstore provides in-memory port implementations for tests and
// local development without a Supabase project.
package memstore

import (
	"context"
	"sync"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
)

// ProfileStore is a map-backed ProfileRepository.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
}

// NewProfileStore creates an empty in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]domain.UserProfile)}
}

// Load returns a copy of the stored profile or *domain.ErrNotFound.
func (s *ProfileStore) Load(_ context.Context, visitorID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[visitorID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: visitorID}
	}
	copied := p
	return &copied, nil
}

// Save stores a copy of the profile keyed by visitor ID.
func (s *ProfileStore) Save(_ context.Context, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.VisitorID] = *profile
	return nil
}

// Reset removes the profile. Resetting an unknown visitor is a no-op.
func (s *ProfileStore) Reset(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, visitorID)
	return nil
}
