package aggrego

import (
	"context"
	"fmt"

	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// appender is satisfied by in-process connectors that can accept new rows
// directly, such as rawdata.MemorySource.
type appender interface {
	Append(records ...rawdata.SalesRecord)
}

// IngestRecords implements Engine. Each record is rendered to text,
// embedded, and upserted into the data source's record collection keyed by
// record ID, so re-ingesting a record replaces its previous vector.
func (c *Client) IngestRecords(ctx context.Context, dataSourceID string, records []rawdata.SalesRecord) (int, error) {
	if dataSourceID == "" {
		return 0, types.ErrEmptyDataSourceID
	}
	if len(records) == 0 {
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = renderRecord(&r)
	}

	embeddings, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed records: %w", err)
	}
	if len(embeddings) != len(records) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d records", len(embeddings), len(records))
	}

	collection := vectorindex.RecordCollection(dataSourceID)
	if err := c.index.EnsureCollection(ctx, collection, c.embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("failed to ensure record collection: %w", err)
	}

	points := make([]vectorindex.Point, len(records))
	for i, r := range records {
		points[i] = vectorindex.Point{
			ID:     r.RecordID,
			Vector: embeddings[i],
			Payload: map[string]interface{}{
				"text":           texts[i],
				"data_source_id": dataSourceID,
				"record_id":      r.RecordID,
				"product_id":     r.ProductID,
				"product":        r.Product,
				"category":       r.Category,
				"date":           r.Date.UTC().Format("2006-01-02"),
				"quantity":       r.Quantity,
				"unit_price":     r.UnitPrice,
				"amount":         r.Amount,
			},
		}
	}
	if err := c.index.Upsert(ctx, collection, points); err != nil {
		return 0, fmt.Errorf("failed to index records: %w", err)
	}

	if source, err := c.registry.Resolve(dataSourceID); err == nil {
		if sink, ok := source.(appender); ok {
			sink.Append(records...)
		}
	}

	c.logger.InfoContext(ctx, "ingested records",
		"data_source_id", dataSourceID,
		"count", len(records))
	return len(records), nil
}

// renderRecord builds the text that stands in for a row in the vector
// index.
func renderRecord(r *rawdata.SalesRecord) string {
	return fmt.Sprintf("%s (%s): %.0f units at %.2f each, %.2f total on %s",
		r.Product, r.Category, r.Quantity, r.UnitPrice, r.Amount, r.Date.UTC().Format("2006-01-02"))
}
