package aggrego

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundprediction/aggrego/pkg/config"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer one analytic question and exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var (
	queryDataSourceID string
	queryCatalogPath  string
	queryParquetPath  string
)

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryDataSourceID, "data-source-id", "", "Data source to query")
	queryCmd.Flags().StringVar(&queryParquetPath, "parquet", "", "Parquet file backing the data source (enables full scans)")
	queryCmd.Flags().StringVar(&queryCatalogPath, "catalog", "", "Aggregation catalog YAML file")
	queryCmd.MarkFlagRequired("data-source-id")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dataSources := map[string]string{}
	if queryParquetPath != "" {
		dataSources[queryDataSourceID] = queryParquetPath
	}

	engine, parquetHandler, _, err := buildEngine(cfg, queryCatalogPath, dataSources)
	if err != nil {
		return err
	}
	defer func() {
		if parquetHandler != nil {
			parquetHandler.Flush()
		}
		engine.Close(context.Background())
	}()

	answer, err := engine.AnswerQuery(cmd.Context(), queryDataSourceID, args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(answer)
}
