package formatter

import (
	"fmt"
	"time"

	"github.com/soundprediction/aggrego/pkg/types"
)

// Formatter shapes execution outputs into answer envelopes with a
// human-readable provenance line. It is presentation only: values,
// confidence, and strategy pass through untouched.
type Formatter struct{}

// New creates a formatter.
func New() *Formatter {
	return &Formatter{}
}

// Format builds the answer envelope for one executed query.
func (f *Formatter) Format(intent *types.QueryIntent, out *types.ExecutionOutput) *types.AnswerEnvelope {
	envelope := &types.AnswerEnvelope{
		Confidence: intent.Confidence,
		Strategy:   out.Strategy,
		Results:    out.Hits,
	}

	switch out.Strategy {
	case types.StrategyPrecomputed:
		f.formatAggregation(envelope, out)
	case types.StrategyFullScan:
		f.formatAggregation(envelope, out)
	case types.StrategyHybrid:
		f.formatAggregation(envelope, out)
		if len(out.Hits) > 0 {
			envelope.Explanation += fmt.Sprintf(" Included %d supporting records.", len(out.Hits))
		}
	default:
		f.formatSemantic(envelope, out)
	}
	return envelope
}

func (f *Formatter) formatAggregation(envelope *types.AnswerEnvelope, out *types.ExecutionOutput) {
	envelope.ResultType = types.ResultTypeAggregation
	value := out.Value
	envelope.Value = &value
	envelope.Precomputed = out.IsPrecomputed

	switch {
	case out.IsPrecomputed && out.Fact != nil:
		updated := out.Fact.LastUpdated
		envelope.LastUpdated = &updated
		envelope.Explanation = fmt.Sprintf(
			"This result was retrieved from pre-computed aggregations, last updated %s.",
			updated.Format(time.RFC3339))
	case out.NeedsImplementation:
		envelope.Explanation = "This result was calculated by analyzing the data that matches your query. " +
			"Live aggregation for this data source is not available yet, so the value above is a placeholder."
	default:
		envelope.Explanation = "This result was calculated by analyzing the data that matches your query."
	}
}

func (f *Formatter) formatSemantic(envelope *types.AnswerEnvelope, out *types.ExecutionOutput) {
	envelope.ResultType = types.ResultTypeSemantic
	envelope.Precomputed = false

	if len(out.Hits) == 0 {
		envelope.Explanation = "No matching records were found for your query."
		return
	}
	envelope.Explanation = fmt.Sprintf("Found %d matching records ranked by relevance.", len(out.Hits))
}
