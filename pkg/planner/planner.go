package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/types"
)

// DefaultTopK is the semantic-search result count when the caller does not
// ask for a specific limit.
const DefaultTopK = 10

// SubjectResolver maps extracted entities to a subject ID. The classifier
// implements this over its catalog labels.
type SubjectResolver interface {
	SubjectID(entities map[string]string) string
}

// Selector decides the execution strategy for a classified intent. It is
// deterministic given the same store contents and clock.
type Selector struct {
	store           aggstore.Store
	resolver        SubjectResolver
	freshnessWindow time.Duration
	topK            int

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a strategy selector. The freshness window must be positive:
// zero would force a full scan for every query and defeat the cache, and
// there is no "infinite" setting because that would serve permanently
// stale numbers. topK caps semantic and hybrid-fallback result counts; a
// non-positive value means DefaultTopK.
func New(store aggstore.Store, resolver SubjectResolver, freshnessWindow time.Duration, topK int) (*Selector, error) {
	if freshnessWindow <= 0 {
		return nil, fmt.Errorf("freshness window must be positive, got %s", freshnessWindow)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Selector{
		store:           store,
		resolver:        resolver,
		freshnessWindow: freshnessWindow,
		topK:            topK,
		now:             time.Now,
	}, nil
}

// SelectStrategy maps an intent to an execution plan.
//
// Aggregation intents prefer a fresh precomputed fact; a missing or stale
// fact falls back to a full scan. A data source with no materialized
// partition at all is handled the same way: absence is data here, never
// an error.
func (s *Selector) SelectStrategy(ctx context.Context, intent types.QueryIntent, dataSourceID string) (*types.ExecutionPlan, error) {
	if !intent.IsAggregation() {
		return s.semanticPlan(intent, dataSourceID), nil
	}

	subjectID := s.resolver.SubjectID(intent.Entities)
	key := types.FactKey(dataSourceID, intent.AggregationType, subjectID)

	fact, err := s.store.Get(ctx, key)
	switch {
	case errors.Is(err, aggstore.ErrFactNotFound):
		// Cold partition or unmaterialized subject: scan on demand.
		return s.scanPlan(intent, dataSourceID, subjectID), nil
	case err != nil:
		return nil, fmt.Errorf("store lookup for %s failed: %w", key, err)
	}

	if !fact.Fresh(s.now(), s.freshnessWindow) {
		return s.scanPlan(intent, dataSourceID, subjectID), nil
	}

	plan := &types.ExecutionPlan{
		Strategy: types.StrategyPrecomputed,
		Intent:   intent,
		Detail: types.PlanDetail{
			FactKey:      key,
			DataSourceID: dataSourceID,
		},
	}
	s.attachHybridFallback(plan, intent, dataSourceID)
	return plan, nil
}

func (s *Selector) semanticPlan(intent types.QueryIntent, dataSourceID string) *types.ExecutionPlan {
	return &types.ExecutionPlan{
		Strategy: types.StrategySemantic,
		Intent:   intent,
		Detail: types.PlanDetail{
			DataSourceID: dataSourceID,
			TopK:         s.topK,
		},
	}
}

func (s *Selector) scanPlan(intent types.QueryIntent, dataSourceID, subjectID string) *types.ExecutionPlan {
	plan := &types.ExecutionPlan{
		Strategy: types.StrategyFullScan,
		Intent:   intent,
		Detail: types.PlanDetail{
			DataSourceID:        dataSourceID,
			AggregationType:     intent.AggregationType,
			AggregationFunction: intent.AggregationFunction,
			SubjectID:           subjectID,
			Entities:            intent.Entities,
		},
	}
	s.attachHybridFallback(plan, intent, dataSourceID)
	return plan
}

// attachHybridFallback adds the semantic segment of a hybrid plan so the
// executor can enrich the numeric answer with supporting snippets.
func (s *Selector) attachHybridFallback(plan *types.ExecutionPlan, intent types.QueryIntent, dataSourceID string) {
	if intent.Kind != types.KindHybrid {
		return
	}
	plan.Strategy = types.StrategyHybrid
	plan.Fallback = &types.PlanDetail{
		DataSourceID: dataSourceID,
		TopK:         s.topK,
	}
}
