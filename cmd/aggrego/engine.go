package aggrego

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/alert"
	"github.com/soundprediction/aggrego/pkg/classifier"
	"github.com/soundprediction/aggrego/pkg/config"
	"github.com/soundprediction/aggrego/pkg/embedder"
	"github.com/soundprediction/aggrego/pkg/logger"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/telemetry"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

// buildEngine assembles the engine from configuration: store, vector
// index, embedder, catalog, and telemetry.
func buildEngine(cfg *config.Config, catalogPath string, dataSources map[string]string) (*aggrego.Client, *telemetry.ParquetHandler, *slog.Logger, error) {
	log, parquetHandler, err := logger.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := aggstore.NewStore(&aggstore.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open aggregation store: %w", err)
	}

	var index vectorindex.Index
	switch cfg.Vector.Provider {
	case "qdrant":
		index = vectorindex.NewQdrantIndex(cfg.Vector.Host, cfg.Vector.Port)
	case "memory":
		index = vectorindex.NewMemoryIndex()
	default:
		return nil, nil, nil, fmt.Errorf("unsupported vector provider: %s", cfg.Vector.Provider)
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var catalog *classifier.Catalog
	if catalogPath != "" {
		catalog, err = classifier.LoadCatalog(catalogPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	indexed := aggstore.NewIndexedStore(store, index, emb.Dimensions())
	engine, err := aggrego.NewClient(indexed, index, emb, &aggrego.Config{
		Catalog:         catalog,
		FreshnessWindow: cfg.Materializer.FreshnessWindow,
		ScanTimeout:     cfg.Materializer.ScanTimeout,
		Telemetry:       parquetHandler,
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build engine: %w", err)
	}

	for id, path := range dataSources {
		engine.RegisterDataSource(id, rawdata.NewParquetSource(path))
		log.Info("registered data source", "data_source_id", id, "path", path)
	}

	return engine, parquetHandler, log, nil
}

func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	embConfig := embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Vector.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	}

	var emb embedder.Client
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("embedding API key is required for the openai provider")
		}
		emb = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embConfig)
	case "embedeverything":
		client, err := embedder.NewEmbedEverythingClient(embConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create local embedder: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}

	if cfg.CircuitBreaker.Enabled {
		var alerter alert.Alerter = &alert.NoOpAlerter{}
		if cfg.Alert.Enabled {
			alerter = alert.NewDeduper(alert.NewEmailAlerter(cfg.Alert), 15*time.Minute)
		}
		emb = embedder.NewCircuitBreakerClient(emb, cfg.CircuitBreaker, alerter, "embedder")
	}
	return emb, nil
}
