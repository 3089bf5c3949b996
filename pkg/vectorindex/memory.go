package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-process Index using brute-force cosine similarity.
// It serves tests and single-node deployments without a Qdrant instance.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point
	dimensions  map[string]int
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: make(map[string]map[string]Point),
		dimensions:  make(map[string]int),
	}
}

// EnsureCollection implements Index.
func (m *MemoryIndex) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = make(map[string]Point)
		m.dimensions[collection] = dimensions
	}
	return nil
}

// Upsert implements Index. Points replace any existing point with the same ID.
func (m *MemoryIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	dims := m.dimensions[collection]
	for _, p := range points {
		if dims > 0 && len(p.Vector) != dims {
			return fmt.Errorf("point %s has %d dimensions, collection %s expects %d", p.ID, len(p.Vector), collection, dims)
		}
		coll[p.ID] = p
	}
	return nil
}

// Search implements Index with brute-force cosine similarity.
func (m *MemoryIndex) Search(ctx context.Context, collection string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	results := make([]ScoredPoint, 0, len(coll))
	for _, p := range coll {
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		results = append(results, ScoredPoint{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Close implements Index.
func (m *MemoryIndex) Close() error {
	return nil
}

func matchesFilter(payload map[string]interface{}, filter Filter) bool {
	for field, want := range filter {
		got, ok := payload[field]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
