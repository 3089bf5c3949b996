package rawdata

import (
	"fmt"
	"sync"
)

// Registry maps data source IDs to their raw data connectors. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register binds a connector to a data source ID, replacing any previous
// binding.
func (r *Registry) Register(dataSourceID string, source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[dataSourceID] = source
}

// Resolve returns the connector for a data source ID.
func (r *Registry) Resolve(dataSourceID string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[dataSourceID]
	if !ok {
		return nil, fmt.Errorf("no raw data source registered for %s", dataSourceID)
	}
	return source, nil
}

// IDs returns the registered data source IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	return ids
}
