// Package logger builds the engine's structured logger from configuration.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/soundprediction/aggrego/pkg/config"
	"github.com/soundprediction/aggrego/pkg/telemetry"
)

// New builds a slog.Logger from the log configuration. When a telemetry
// Parquet path is configured, error-level records are additionally
// persisted there; the returned handler is non-nil in that case so callers
// can flush it on shutdown.
func New(cfg *config.Config) (*slog.Logger, *telemetry.ParquetHandler, error) {
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	var parquetHandler *telemetry.ParquetHandler
	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err = telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up telemetry handler: %w", err)
		}
		handler = parquetHandler
	}

	return slog.New(handler), parquetHandler, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}
