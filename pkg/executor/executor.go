package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/embedder"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// ErrScanTimeout marks a full scan that exceeded its deadline. It is
// surfaced as an explicit error, never as a silently wrong zero.
var ErrScanTimeout = errors.New("full-scan aggregation timed out")

// SourceResolver maps a data source ID to its raw data connector.
// rawdata.Registry satisfies it.
type SourceResolver interface {
	Resolve(dataSourceID string) (rawdata.Source, error)
}

// Executor dispatches an execution plan to its strategy's path: a point
// lookup in the aggregation store, an on-demand scan of the raw source, or
// a similarity search against the vector index.
type Executor struct {
	store       aggstore.Store
	sources     SourceResolver
	index       vectorindex.Index
	embedder    embedder.Client
	scanTimeout time.Duration
	logger      *slog.Logger
}

// New creates an executor. A nil resolver marks every scan path as not
// wired; full-scan plans then return a degraded-but-explicit placeholder
// instead of a fabricated number.
func New(store aggstore.Store, sources SourceResolver, index vectorindex.Index, emb embedder.Client, scanTimeout time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if scanTimeout <= 0 {
		scanTimeout = 30 * time.Second
	}
	return &Executor{
		store:       store,
		sources:     sources,
		index:       index,
		embedder:    emb,
		scanTimeout: scanTimeout,
		logger:      logger,
	}
}

// Execute runs a plan. Strategy and total timing are always populated in
// the output, whichever branch executed.
func (e *Executor) Execute(ctx context.Context, plan *types.ExecutionPlan) (*types.ExecutionOutput, error) {
	start := time.Now()

	out, err := e.dispatch(ctx, plan)
	if err != nil {
		return nil, err
	}

	out.Strategy = plan.Strategy
	out.Timings.Total = time.Since(start)
	return out, nil
}

func (e *Executor) dispatch(ctx context.Context, plan *types.ExecutionPlan) (*types.ExecutionOutput, error) {
	switch plan.Strategy {
	case types.StrategyPrecomputed:
		return e.lookupFact(ctx, plan.Detail.FactKey)

	case types.StrategyFullScan:
		return e.fullScan(ctx, &plan.Detail)

	case types.StrategySemantic:
		return e.semanticSearch(ctx, &plan.Detail)

	case types.StrategyHybrid:
		return e.hybrid(ctx, plan)
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownStrategy, plan.Strategy)
}

// lookupFact is the O(1) cache hit: a point read against the store's key
// index.
func (e *Executor) lookupFact(ctx context.Context, key string) (*types.ExecutionOutput, error) {
	storeStart := time.Now()
	fact, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("precomputed fact lookup for %s failed: %w", key, err)
	}

	return &types.ExecutionOutput{
		Value:         fact.Value,
		Fact:          fact,
		IsPrecomputed: true,
		Timings:       types.ExecutionTimings{Store: time.Since(storeStart)},
	}, nil
}

// fullScan computes the aggregate on demand from the raw source.
func (e *Executor) fullScan(ctx context.Context, detail *types.PlanDetail) (*types.ExecutionOutput, error) {
	var source rawdata.Source
	if e.sources != nil {
		if s, err := e.sources.Resolve(detail.DataSourceID); err == nil {
			source = s
		}
	}
	if source == nil {
		e.logger.WarnContext(ctx, "full-scan path not wired to raw data",
			"data_source_id", detail.DataSourceID,
			"aggregation_type", detail.AggregationType)
		return &types.ExecutionOutput{
			IsPrecomputed:       false,
			NeedsImplementation: true,
		}, nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, e.scanTimeout)
	defer cancel()

	scanStart := time.Now()
	value, err := source.Aggregate(scanCtx, detail.AggregationType, detail.AggregationFunction, detail.SubjectID)
	scanDuration := time.Since(scanStart)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s", ErrScanTimeout, scanDuration)
	case errors.Is(err, rawdata.ErrNoRecords):
		// No matching rows is a real zero, not a failure.
		value = 0
	case err != nil:
		return nil, fmt.Errorf("full-scan aggregation failed: %w", err)
	}

	return &types.ExecutionOutput{
		Value:         value,
		IsPrecomputed: false,
		Timings:       types.ExecutionTimings{Scan: scanDuration},
	}, nil
}

// semanticSearch embeds the query and searches both the record collection
// and the materialized-fact collection of the data source, merged by score.
func (e *Executor) semanticSearch(ctx context.Context, detail *types.PlanDetail) (*types.ExecutionOutput, error) {
	embedStart := time.Now()
	vector, err := e.embedder.EmbedSingle(ctx, detail.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	embedDuration := time.Since(embedStart)

	topK := detail.TopK
	if topK <= 0 {
		topK = 10
	}

	searchStart := time.Now()
	collections := []string{
		vectorindex.RecordCollection(detail.DataSourceID),
		vectorindex.FactCollection(detail.DataSourceID),
	}

	hits := make([]types.SearchHit, 0, topK)
	var searchErr error
	searched := 0
	for _, collection := range collections {
		points, err := e.index.Search(ctx, collection, vector, nil, topK)
		switch {
		case errors.Is(err, vectorindex.ErrCollectionNotFound):
			// A cold source has no collections yet. Absence means zero
			// hits, never a failure.
			continue
		case err != nil:
			// Keep whatever the other collection returns.
			searchErr = err
			continue
		}
		searched++
		for _, p := range points {
			hit := types.SearchHit{ID: p.ID, Score: p.Score, Payload: p.Payload}
			if text, ok := p.Payload["text"].(string); ok {
				hit.Text = text
			}
			hits = append(hits, hit)
		}
	}
	if searched == 0 && searchErr != nil {
		return nil, fmt.Errorf("similarity search failed: %w", searchErr)
	}

	sortHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}

	return &types.ExecutionOutput{
		Hits: hits,
		Timings: types.ExecutionTimings{
			Embedding: embedDuration,
			Search:    time.Since(searchStart),
		},
	}, nil
}

// hybrid runs the numeric segment, then enriches it with supporting
// snippets from the fallback semantic segment.
func (e *Executor) hybrid(ctx context.Context, plan *types.ExecutionPlan) (*types.ExecutionOutput, error) {
	var out *types.ExecutionOutput
	var err error

	if plan.Detail.FactKey != "" {
		out, err = e.lookupFact(ctx, plan.Detail.FactKey)
	} else {
		out, err = e.fullScan(ctx, &plan.Detail)
	}
	if err != nil {
		return nil, err
	}

	if plan.Fallback != nil {
		semantic, err := e.semanticSearch(ctx, plan.Fallback)
		if err != nil {
			// The numeric answer stands on its own; log and return it
			// without snippets.
			e.logger.WarnContext(ctx, "hybrid fallback search failed", "error", err)
		} else {
			out.Hits = semantic.Hits
			out.Timings.Embedding = semantic.Timings.Embedding
			out.Timings.Search = semantic.Timings.Search
		}
	}
	return out, nil
}

func sortHits(hits []types.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
}
