package rawdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/aggrego/pkg/types"
)

// ParquetSource reads records from a local Parquet file once and serves
// aggregations over the loaded rows. Suitable for exported datasets that
// fit in memory; warehouse-scale sources belong behind their own Source
// implementation.
type ParquetSource struct {
	path string

	loadOnce sync.Once
	loadErr  error
	records  []SalesRecord
}

// NewParquetSource creates a source over the given Parquet file. The file
// is read lazily on first use.
func NewParquetSource(path string) *ParquetSource {
	return &ParquetSource{path: path}
}

func (s *ParquetSource) load() error {
	s.loadOnce.Do(func() {
		rows, err := parquet.ReadFile[SalesRecord](s.path)
		if err != nil {
			s.loadErr = fmt.Errorf("failed to read parquet file %s: %w", s.path, err)
			return
		}
		s.records = rows
	})
	return s.loadErr
}

// ListSubjects implements Source.
func (s *ParquetSource) ListSubjects(ctx context.Context, aggType types.AggregationType) ([]Subject, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return listSubjects(s.records, aggType), nil
}

// Aggregate implements Source.
func (s *ParquetSource) Aggregate(ctx context.Context, aggType types.AggregationType, fn types.AggregationFunction, subjectID string) (float64, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return aggregate(s.records, aggType, fn, subjectID)
}
