package store

import (
	"context"
	"sync"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

// MemoryStore keeps attachments in process memory. Used by tests and
// the one-shot CLI, where persistence across restarts is not needed.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]*diagnostic.ResultSet
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*diagnostic.ResultSet)}
}

// Attach implements Store.
func (s *MemoryStore) Attach(_ context.Context, key string, set *diagnostic.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[key]; ok {
		return ErrAlreadyAttached
	}
	s.sets[key] = set
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (*diagnostic.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[key]
	if !ok {
		return nil, ErrNotFound
	}
	return set, nil
}

// Keys implements Store.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.sets))
	for k := range s.sets {
		keys = append(keys, k)
	}
	return keys, nil
}
