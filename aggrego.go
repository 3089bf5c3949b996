package aggrego

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/classifier"
	"github.com/soundprediction/aggrego/pkg/embedder"
	"github.com/soundprediction/aggrego/pkg/executor"
	"github.com/soundprediction/aggrego/pkg/formatter"
	"github.com/soundprediction/aggrego/pkg/materializer"
	"github.com/soundprediction/aggrego/pkg/planner"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/telemetry"
	"github.com/soundprediction/aggrego/pkg/types"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// Engine is the main interface for answering analytic questions over
// registered data sources. It routes each free-text query to the cheapest
// strategy that can answer it correctly and keeps the precomputed fact
// layer that the fast path depends on.
type Engine interface {
	// AnswerQuery classifies a free-text question, selects an execution
	// strategy, runs it, and wraps the result in an answer envelope.
	AnswerQuery(ctx context.Context, dataSourceID, query string) (*types.AnswerEnvelope, error)

	// ClassifyQuery exposes the intent classification step on its own.
	ClassifyQuery(query string) types.QueryIntent

	// MaterializeAggregations runs one materialization pass for a data
	// source, upserting one embedded fact per catalog entry and subject.
	// An empty type list covers the whole catalog.
	MaterializeAggregations(ctx context.Context, dataSourceID string, aggregationTypes ...types.AggregationType) (*types.MaterializationReport, error)

	// IngestRecords embeds raw records and indexes them for semantic
	// search, appending them to the data source's in-process connector
	// when it supports that.
	IngestRecords(ctx context.Context, dataSourceID string, records []rawdata.SalesRecord) (int, error)

	// RegisterDataSource binds a raw data connector to a data source ID.
	RegisterDataSource(dataSourceID string, source rawdata.Source)

	// Ping verifies the aggregation store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store, index, and embedder.
	Close(ctx context.Context) error
}

// Config holds tuning knobs for the client.
type Config struct {
	// Catalog defines the aggregation types, trigger phrases, and fact
	// description templates. Nil means the default sales catalog.
	Catalog *classifier.Catalog

	// FreshnessWindow bounds how old a precomputed fact may be before
	// queries fall back to a full scan. Defaults to twice the hourly
	// materialization cadence.
	FreshnessWindow time.Duration

	// ScanTimeout bounds one on-demand aggregation scan.
	ScanTimeout time.Duration

	// TopK is the semantic-search result count.
	TopK int

	// Telemetry receives per-query traces when set.
	Telemetry *telemetry.ParquetHandler
}

// Client is the main implementation of the Engine interface.
type Client struct {
	store        aggstore.Store
	index        vectorindex.Index
	embedder     embedder.Client
	registry     *rawdata.Registry
	classifier   *classifier.Classifier
	selector     *planner.Selector
	executor     *executor.Executor
	formatter    *formatter.Formatter
	materializer *materializer.Materializer
	config       *Config
	logger       *slog.Logger
}

// NewClient wires a client from its collaborators.
func NewClient(store aggstore.Store, index vectorindex.Index, embedderClient embedder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Catalog == nil {
		config.Catalog = classifier.DefaultCatalog()
	}
	if config.FreshnessWindow <= 0 {
		config.FreshnessWindow = 2 * time.Hour
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 30 * time.Second
	}
	if config.TopK <= 0 {
		config.TopK = planner.DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := rawdata.NewRegistry()
	intentClassifier := classifier.New(config.Catalog)

	selector, err := planner.New(store, intentClassifier, config.FreshnessWindow, config.TopK)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		index:        index,
		embedder:     embedderClient,
		registry:     registry,
		classifier:   intentClassifier,
		selector:     selector,
		executor:     executor.New(store, registry, index, embedderClient, config.ScanTimeout, logger),
		formatter:    formatter.New(),
		materializer: materializer.New(store, registry.Resolve, embedderClient, config.Catalog, logger),
		config:       config,
		logger:       logger,
	}, nil
}

// RegisterDataSource implements Engine.
func (c *Client) RegisterDataSource(dataSourceID string, source rawdata.Source) {
	c.registry.Register(dataSourceID, source)
}

// DataSourceIDs returns the registered data source IDs.
func (c *Client) DataSourceIDs() []string {
	return c.registry.IDs()
}

// ClassifyQuery implements Engine.
func (c *Client) ClassifyQuery(query string) types.QueryIntent {
	return c.classifier.Classify(query)
}

// MaterializeAggregations implements Engine.
func (c *Client) MaterializeAggregations(ctx context.Context, dataSourceID string, aggregationTypes ...types.AggregationType) (*types.MaterializationReport, error) {
	return c.materializer.Materialize(ctx, dataSourceID, aggregationTypes...)
}

// Ping implements Engine. It reads a key that cannot exist; a not-found
// result proves the store is reachable without side effects.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.store.Get(ctx, "ping:none:none")
	if err != nil && !errors.Is(err, aggstore.ErrFactNotFound) {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

// Close implements Engine.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if err := c.store.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close store: %w", err)
	}
	if err := c.index.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close index: %w", err)
	}
	if err := c.embedder.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close embedder: %w", err)
	}
	return firstErr
}
