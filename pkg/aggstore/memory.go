package aggstore

import (
	"context"
	"strings"
	"sync"

	"github.com/soundprediction/aggrego/pkg/types"
)

// MemoryStore keeps facts in a mutex-guarded map. Facts are stored and
// returned by value so no caller can observe a partially updated fact.
type MemoryStore struct {
	mu    sync.RWMutex
	facts map[string]types.AggregateFact
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{facts: make(map[string]types.AggregateFact)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, fact *types.AggregateFact) error {
	if err := fact.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[fact.Key] = *fact
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (*types.AggregateFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fact, ok := s.facts[key]
	if !ok {
		return nil, ErrFactNotFound
	}
	copy := fact
	return &copy, nil
}

// ListByDataSource implements Store.
func (s *MemoryStore) ListByDataSource(ctx context.Context, dataSourceID string) ([]*types.AggregateFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := dataSourceID + ":"
	facts := make([]*types.AggregateFact, 0)
	for key, fact := range s.facts {
		if strings.HasPrefix(key, prefix) {
			copy := fact
			facts = append(facts, &copy)
		}
	}
	return facts, nil
}

// HasPartition implements Store.
func (s *MemoryStore) HasPartition(ctx context.Context, dataSourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := dataSourceID + ":"
	for key := range s.facts {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
