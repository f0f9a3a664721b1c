package persist

import (
	"context"
	"slices"
	"sync"

	"github.com/gofhir/profiletree/service"
)

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// LoadExpanded implements service.ExpansionStore.
func (s *MemoryStore) LoadExpanded(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.values[key]), nil
}

// SaveExpanded implements service.ExpansionStore.
func (s *MemoryStore) SaveExpanded(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
	return nil
}

var _ service.ExpansionStore = (*MemoryStore)(nil)
