package profile

import (
	"context"
	"sync"
)

// InMemoryStore is a lightweight Store implementation for tests and for
// running without a persistence directory.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryStore constructs an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]*Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) Put(_ context.Context, userID string, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p.Clone()
	return nil
}
