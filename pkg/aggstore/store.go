package aggstore

import (
	"context"
	"errors"

	"github.com/soundprediction/aggrego/pkg/types"
)

var (
	// ErrFactNotFound is returned when no fact exists for a key. On the
	// query path this is data, not a failure: the planner falls back to a
	// full scan.
	ErrFactNotFound = errors.New("aggregate fact not found")
)

// Store is the keyed table of precomputed aggregate facts.
//
// Writes happen only through the materializer, which serializes per data
// source; reads are concurrent. Implementations must return each fact
// whole: a reader sees either the previous fact or the fully new one,
// never the old value with the new timestamp.
type Store interface {
	// Upsert writes a fact, replacing any fact with the same key.
	Upsert(ctx context.Context, fact *types.AggregateFact) error

	// Get returns the fact for a key, or ErrFactNotFound.
	Get(ctx context.Context, key string) (*types.AggregateFact, error)

	// ListByDataSource returns every fact belonging to a data source.
	ListByDataSource(ctx context.Context, dataSourceID string) ([]*types.AggregateFact, error)

	// HasPartition reports whether any fact exists for a data source.
	// A cold (never materialized) source yields false without error.
	HasPartition(ctx context.Context, dataSourceID string) (bool, error)

	// Close releases backend resources.
	Close() error
}

// Config selects and parameterizes a store backend.
type Config struct {
	// Backend is "badger" or "memory". Empty defaults to memory.
	Backend string `json:"backend,omitempty"`
	// Path is the badger data directory.
	Path string `json:"path,omitempty"`
}
