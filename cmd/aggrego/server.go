package aggrego

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aggrego/pkg/config"
	"github.com/soundprediction/aggrego/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Aggrego HTTP server",
	Long: `Start the Aggrego HTTP server to provide REST API access to the query engine.

The server provides endpoints for:
- Answering free-text analytic questions
- Classifying questions into structured intents
- Triggering materialization passes
- Ingesting raw records
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string

	serverCatalogPath string
	serverDataSources map[string]string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Store flags
	serverCmd.Flags().String("store-backend", "badger", "Aggregation store backend (badger, memory)")
	serverCmd.Flags().String("store-path", "./aggrego_db", "Aggregation store data directory")

	// Vector index flags
	serverCmd.Flags().String("vector-provider", "qdrant", "Vector index provider (qdrant, memory)")
	serverCmd.Flags().String("vector-host", "localhost", "Vector index host")
	serverCmd.Flags().Int("vector-port", 6333, "Vector index port")
	serverCmd.Flags().Int("vector-dimensions", 1536, "Embedding dimensions")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "openai", "Embedding provider (openai, embedeverything)")
	serverCmd.Flags().String("embedding-model", "text-embedding-3-small", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Materializer flags
	serverCmd.Flags().Duration("materialize-cadence", time.Hour, "Interval between scheduled materialization runs")
	serverCmd.Flags().Duration("freshness-window", 2*time.Hour, "Maximum precomputed fact age before queries fall back to a scan")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (errors and query traces)")

	// Data plane flags
	serverCmd.Flags().StringVar(&serverCatalogPath, "catalog", "", "Aggregation catalog YAML file (default is the built-in sales catalog)")
	serverCmd.Flags().StringToStringVar(&serverDataSources, "data-source", nil, "Data source registrations as id=parquet-path pairs")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engine, parquetHandler, log, err := buildEngine(cfg, serverCatalogPath, serverDataSources)
	if err != nil {
		return err
	}

	srv := server.New(cfg, engine, log)
	srv.Setup()

	// Scheduled materialization for every registered data source.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go runMaterializationLoop(schedulerCtx, engine, cfg.Materializer.Cadence, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopScheduler()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				log.Warn("failed to flush telemetry", "error", err)
			}
		}
		if err := engine.Close(shutdownCtx); err != nil {
			return fmt.Errorf("engine shutdown error: %w", err)
		}

		log.Info("server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("store-backend") {
		cfg.Store.Backend, _ = cmd.Flags().GetString("store-backend")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}

	if cmd.Flags().Changed("vector-provider") {
		cfg.Vector.Provider, _ = cmd.Flags().GetString("vector-provider")
	}
	if cmd.Flags().Changed("vector-host") {
		cfg.Vector.Host, _ = cmd.Flags().GetString("vector-host")
	}
	if cmd.Flags().Changed("vector-port") {
		cfg.Vector.Port, _ = cmd.Flags().GetInt("vector-port")
	}
	if cmd.Flags().Changed("vector-dimensions") {
		cfg.Vector.Dimensions, _ = cmd.Flags().GetInt("vector-dimensions")
	}

	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	if cmd.Flags().Changed("materialize-cadence") {
		cfg.Materializer.Cadence, _ = cmd.Flags().GetDuration("materialize-cadence")
	}
	if cmd.Flags().Changed("freshness-window") {
		cfg.Materializer.FreshnessWindow, _ = cmd.Flags().GetDuration("freshness-window")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Store.Backend == "badger" && cfg.Store.Path == "" {
		return fmt.Errorf("store path is required for the badger backend")
	}
	return nil
}
