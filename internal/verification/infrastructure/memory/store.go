package memory

import (
	"context"
	"sync"

	"github.com/avelar/storefront/internal/verification/domain"
)

// Store is an in-process StateStore for tests and local development.
type Store struct {
	mu     sync.RWMutex
	states map[string]domain.State
}

func NewStore() *Store {
	return &Store{states: make(map[string]domain.State)}
}

func (s *Store) Get(ctx context.Context, sessionID string) (domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[sessionID], nil
}

func (s *Store) Put(ctx context.Context, sessionID string, st domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = st
	return nil
}
