package aggrego

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/config"
	"github.com/soundprediction/aggrego/pkg/types"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Run one materialization pass and exit",
	Long: `Run one full materialization pass for the given data sources.

Each pass computes every catalog aggregation per subject, embeds the
resulting facts, and upserts them into the aggregation store. The run
report is printed as JSON.`,
	RunE: runMaterialize,
}

var (
	materializeCatalogPath string
	materializeDataSources map[string]string
	materializeTypes       []string
)

func init() {
	rootCmd.AddCommand(materializeCmd)

	materializeCmd.Flags().StringVar(&materializeCatalogPath, "catalog", "", "Aggregation catalog YAML file")
	materializeCmd.Flags().StringToStringVar(&materializeDataSources, "data-source", nil, "Data source registrations as id=parquet-path pairs")
	materializeCmd.Flags().StringSliceVar(&materializeTypes, "type", nil, "Aggregation types to recompute (default: the whole catalog)")
	materializeCmd.MarkFlagRequired("data-source")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	engine, parquetHandler, log, err := buildEngine(cfg, materializeCatalogPath, materializeDataSources)
	if err != nil {
		return err
	}
	defer func() {
		if parquetHandler != nil {
			parquetHandler.Flush()
		}
		engine.Close(context.Background())
	}()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	aggTypes := make([]types.AggregationType, len(materializeTypes))
	for i, t := range materializeTypes {
		aggTypes[i] = types.AggregationType(t)
	}

	for id := range materializeDataSources {
		report, err := engine.MaterializeAggregations(cmd.Context(), id, aggTypes...)
		if err != nil {
			return fmt.Errorf("materialization of %s failed: %w", id, err)
		}
		if err := encoder.Encode(report); err != nil {
			return err
		}
		if len(report.Errors) > 0 {
			log.Warn("materialization finished with partial failures",
				"data_source_id", id,
				"errors", len(report.Errors))
		}
	}
	return nil
}

// runMaterializationLoop re-materializes every registered data source on
// the configured cadence until the context is cancelled.
func runMaterializationLoop(ctx context.Context, engine *aggrego.Client, cadence time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range engine.DataSourceIDs() {
				report, err := engine.MaterializeAggregations(ctx, id)
				if err != nil {
					log.Error("scheduled materialization failed",
						"data_source_id", id,
						"error", err)
					continue
				}
				log.Info("scheduled materialization finished",
					"data_source_id", id,
					"facts_written", report.FactsWritten,
					"errors", len(report.Errors))
			}
		}
	}
}
