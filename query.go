package aggrego

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/aggrego/pkg/types"
)

// AnswerQuery implements Engine. The pipeline is classify, plan, execute,
// format; the classification and formatting steps never fail, so errors
// come only from planning against a broken store or from execution itself.
func (c *Client) AnswerQuery(ctx context.Context, dataSourceID, query string) (*types.AnswerEnvelope, error) {
	if dataSourceID == "" {
		return nil, types.ErrEmptyDataSourceID
	}

	start := time.Now()
	intent := c.classifier.Classify(query)

	plan, err := c.selector.SelectStrategy(ctx, intent, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to plan query: %w", err)
	}
	c.fillQueryDetail(plan, query)

	output, err := c.executor.Execute(ctx, plan)
	if err != nil {
		c.logger.ErrorContext(ctx, "query execution failed",
			"data_source_id", dataSourceID,
			"strategy", string(plan.Strategy),
			"error", err)
		return nil, err
	}

	envelope := c.formatter.Format(&intent, output)

	c.logger.InfoContext(ctx, "answered query",
		"data_source_id", dataSourceID,
		"kind", string(intent.Kind),
		"strategy", string(envelope.Strategy),
		"precomputed", envelope.Precomputed,
		"duration", output.Timings.Total)

	if c.config.Telemetry != nil {
		c.config.Telemetry.RecordQuery(dataSourceID, query, &intent, envelope, time.Since(start))
	}
	return envelope, nil
}

// fillQueryDetail carries the raw query text and result limit into the
// semantic segments of a plan.
func (c *Client) fillQueryDetail(plan *types.ExecutionPlan, query string) {
	if plan.Detail.Query == "" {
		plan.Detail.Query = query
	}
	if plan.Detail.TopK <= 0 {
		plan.Detail.TopK = c.config.TopK
	}
	if plan.Fallback != nil {
		if plan.Fallback.Query == "" {
			plan.Fallback.Query = query
		}
		if plan.Fallback.TopK <= 0 {
			plan.Fallback.TopK = c.config.TopK
		}
	}
}
