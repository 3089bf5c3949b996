package rawdata

import (
	"context"
	"sync"

	"github.com/soundprediction/aggrego/pkg/types"
)

// MemorySource holds records in memory. It backs tests and small datasets
// loaded at startup.
type MemorySource struct {
	mu      sync.RWMutex
	records []SalesRecord
}

// NewMemorySource creates a source over the given records.
func NewMemorySource(records []SalesRecord) *MemorySource {
	return &MemorySource{records: records}
}

// Append adds records, e.g. after an ingestion batch.
func (s *MemorySource) Append(records ...SalesRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// ListSubjects implements Source.
func (s *MemorySource) ListSubjects(ctx context.Context, aggType types.AggregationType) ([]Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSubjects(s.records, aggType), nil
}

// Aggregate implements Source.
func (s *MemorySource) Aggregate(ctx context.Context, aggType types.AggregationType, fn types.AggregationFunction, subjectID string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate(s.records, aggType, fn, subjectID)
}
