package materializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/classifier"
	"github.com/soundprediction/aggrego/pkg/embedder"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
)

// SourceResolver maps a data source ID to its raw data connector.
type SourceResolver func(dataSourceID string) (rawdata.Source, error)

// Materializer precomputes aggregate facts for a data source: one fact per
// (aggregation type, subject) pair plus an all-subjects rollup per type,
// each embedded so it is retrievable by semantic similarity as well as by
// exact key.
type Materializer struct {
	store    aggstore.Store
	sources  SourceResolver
	embedder embedder.Client
	catalog  *classifier.Catalog
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a materializer. The catalog defines which aggregation types
// are computed and how their fact descriptions are rendered.
func New(store aggstore.Store, sources SourceResolver, emb embedder.Client, catalog *classifier.Catalog, logger *slog.Logger) *Materializer {
	if catalog == nil {
		catalog = classifier.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		store:    store,
		sources:  sources,
		embedder: emb,
		catalog:  catalog,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Materialize runs one materialization pass for a data source. With no
// aggregation types given it covers the whole catalog; otherwise only the
// named types are recomputed.
//
// Runs are serialized per data source, so two concurrent calls for the same
// source never interleave writes. A failure inside one aggregation type is
// recorded in the report and does not abort the remaining types. The only
// hard errors are an unresolvable data source and a cancelled context.
func (m *Materializer) Materialize(ctx context.Context, dataSourceID string, aggregationTypes ...types.AggregationType) (*types.MaterializationReport, error) {
	if dataSourceID == "" {
		return nil, types.ErrEmptyDataSourceID
	}

	source, err := m.sources(dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data source %s: %w", dataSourceID, err)
	}

	lock := m.sourceLock(dataSourceID)
	lock.Lock()
	defer lock.Unlock()

	report := &types.MaterializationReport{
		DataSourceID: dataSourceID,
		ByType:       make(map[types.AggregationType]int),
		StartedAt:    m.now(),
	}

	warm, err := m.store.HasPartition(ctx, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition for %s: %w", dataSourceID, err)
	}
	m.logger.InfoContext(ctx, "starting materialization",
		"data_source_id", dataSourceID,
		"first_run", !warm)

	entries, unknown := m.selectEntries(aggregationTypes)
	for _, aggType := range unknown {
		report.Errors = append(report.Errors, types.MaterializationError{
			AggregationType: aggType,
			Message:         "aggregation type is not in the catalog",
		})
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		written, err := m.materializeType(ctx, source, dataSourceID, &entry)
		if written > 0 {
			report.ByType[entry.Type] = written
			report.FactsWritten += written
		}
		if err != nil {
			m.logger.ErrorContext(ctx, "aggregation type failed",
				"data_source_id", dataSourceID,
				"aggregation_type", entry.Type,
				"error", err)
			report.Errors = append(report.Errors, types.MaterializationError{
				AggregationType: entry.Type,
				Message:         err.Error(),
			})
		}
	}

	report.Duration = m.now().Sub(report.StartedAt)

	m.logger.InfoContext(ctx, "materialization finished",
		"data_source_id", dataSourceID,
		"facts_written", report.FactsWritten,
		"errors", len(report.Errors),
		"duration", report.Duration)
	return report, nil
}

// selectEntries resolves a type filter against the catalog. An empty filter
// selects every entry; requested types the catalog does not define come back
// in unknown.
func (m *Materializer) selectEntries(aggregationTypes []types.AggregationType) ([]classifier.CatalogEntry, []types.AggregationType) {
	if len(aggregationTypes) == 0 {
		return m.catalog.Entries, nil
	}

	entries := make([]classifier.CatalogEntry, 0, len(aggregationTypes))
	var unknown []types.AggregationType
	for _, aggType := range aggregationTypes {
		entry, err := m.catalog.Entry(aggType)
		if err != nil {
			unknown = append(unknown, aggType)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, unknown
}

// materializeType computes, embeds, and writes every fact of one
// aggregation type. All facts of the type are embedded in one batch call
// before any of them is written.
func (m *Materializer) materializeType(ctx context.Context, source rawdata.Source, dataSourceID string, entry *classifier.CatalogEntry) (int, error) {
	subjects, err := source.ListSubjects(ctx, entry.Type)
	if err != nil {
		return 0, fmt.Errorf("failed to list subjects: %w", err)
	}

	now := m.now()
	facts := make([]*types.AggregateFact, 0, len(subjects)+1)

	for _, subject := range subjects {
		value, err := source.Aggregate(ctx, entry.Type, entry.Function, subject.ID)
		if errors.Is(err, rawdata.ErrNoRecords) {
			// A subject with no matching rows has no fact to write.
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to aggregate subject %s: %w", subject.ID, err)
		}
		fact, err := m.buildFact(dataSourceID, entry, subject.Name, subject.ID, value, now)
		if err != nil {
			return 0, err
		}
		facts = append(facts, fact)
	}

	// All-subjects rollup under the sentinel subject. An empty source is a
	// normal state, not a failure.
	total, err := source.Aggregate(ctx, entry.Type, entry.Function, types.SubjectAll)
	switch {
	case errors.Is(err, rawdata.ErrNoRecords):
	case err != nil:
		return 0, fmt.Errorf("failed to aggregate rollup: %w", err)
	default:
		rollup, err := m.buildFact(dataSourceID, entry, "all subjects", types.SubjectAll, total, now)
		if err != nil {
			return 0, err
		}
		facts = append(facts, rollup)
	}

	if len(facts) == 0 {
		return 0, nil
	}

	descriptions := make([]string, len(facts))
	for i, fact := range facts {
		descriptions[i] = fact.Description
	}

	embeddings, err := m.embedder.Embed(ctx, descriptions)
	if err != nil {
		return 0, fmt.Errorf("failed to embed fact descriptions: %w", err)
	}
	if len(embeddings) != len(facts) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d facts", len(embeddings), len(facts))
	}
	for i, fact := range facts {
		fact.Embedding = embeddings[i]
	}

	written := 0
	for _, fact := range facts {
		if err := m.store.Upsert(ctx, fact); err != nil {
			return written, fmt.Errorf("failed to upsert fact %s: %w", fact.Key, err)
		}
		written++
	}
	return written, nil
}

func (m *Materializer) buildFact(dataSourceID string, entry *classifier.CatalogEntry, subject, subjectID string, value float64, now time.Time) (*types.AggregateFact, error) {
	description, err := m.catalog.RenderDescription(entry.Type, subject, subjectID, value)
	if err != nil {
		return nil, err
	}
	return &types.AggregateFact{
		Key:             types.FactKey(dataSourceID, entry.Type, subjectID),
		DataSourceID:    dataSourceID,
		AggregationType: entry.Type,
		Subject:         subject,
		SubjectID:       subjectID,
		Value:           value,
		Description:     description,
		LastUpdated:     now,
	}, nil
}

func (m *Materializer) sourceLock(dataSourceID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[dataSourceID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[dataSourceID] = lock
	}
	return lock
}
