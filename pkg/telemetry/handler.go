// Package telemetry persists engine telemetry as Parquet files: error-level
// log records and per-query execution traces, both suitable for loading
// into an analytics warehouse.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/aggrego/pkg/types"
)

// ErrorRecord is one error-level log entry in Parquet form.
type ErrorRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Level         string    `parquet:"level"`
	Message       string    `parquet:"message"`
	DataSourceID  string    `parquet:"data_source_id"`
	Strategy      string    `parquet:"strategy"`
	UserID        string    `parquet:"user_id"`
	SessionID     string    `parquet:"session_id"`
	RequestSource string    `parquet:"request_source"`
	SourceFile    string    `parquet:"source_file"`
	LineNumber    int       `parquet:"line_number"`
	Attributes    string    `parquet:"attributes"`
}

// QueryTrace is one executed query in Parquet form.
type QueryTrace struct {
	ID           string    `parquet:"id"`
	Timestamp    time.Time `parquet:"timestamp"`
	DataSourceID string    `parquet:"data_source_id"`
	Query        string    `parquet:"query"`
	Kind         string    `parquet:"kind"`
	Strategy     string    `parquet:"strategy"`
	Confidence   float64   `parquet:"confidence"`
	Precomputed  bool      `parquet:"precomputed"`
	DurationMS   int64     `parquet:"duration_ms"`
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally buffers error-level records into Parquet files.
type ParquetHandler struct {
	next      slog.Handler
	outputDir string
	batchSize int

	mu     sync.Mutex
	errors []ErrorRecord
	traces []QueryTrace
}

// NewParquetHandler creates a handler writing Parquet batches under outputDir.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &ParquetHandler{
		next:      next,
		outputDir: outputDir,
		batchSize: 100,
		errors:    make([]ErrorRecord, 0, 100),
		traces:    make([]QueryTrace, 0, 100),
	}, nil
}

// Enabled implements slog.Handler.
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. Records below error level pass through
// untouched.
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	var userID, sessionID, requestSource string
	if v, ok := ctx.Value(types.ContextKeyUserID).(string); ok {
		userID = v
	}
	if v, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		sessionID = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestSource).(string); ok {
		requestSource = v
	}

	var dataSourceID, strategy string
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "data_source_id":
			dataSourceID = a.Value.String()
		case "strategy":
			strategy = a.Value.String()
		default:
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	record := ErrorRecord{
		ID:            uuid.New().String(),
		Timestamp:     r.Time.UTC(),
		Level:         r.Level.String(),
		Message:       r.Message,
		DataSourceID:  dataSourceID,
		Strategy:      strategy,
		UserID:        userID,
		SessionID:     sessionID,
		RequestSource: requestSource,
		SourceFile:    f.File,
		LineNumber:    f.Line,
		Attributes:    string(attrsJSON),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.errors = append(h.errors, record)
	if len(h.errors) >= h.batchSize {
		return h.flushErrors()
	}
	return nil
}

// RecordQuery buffers one executed query trace.
func (h *ParquetHandler) RecordQuery(dataSourceID, query string, intent *types.QueryIntent, envelope *types.AnswerEnvelope, duration time.Duration) {
	trace := QueryTrace{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		DataSourceID: dataSourceID,
		Query:        query,
		DurationMS:   duration.Milliseconds(),
	}
	if intent != nil {
		trace.Kind = string(intent.Kind)
		trace.Confidence = intent.Confidence
	}
	if envelope != nil {
		trace.Strategy = string(envelope.Strategy)
		trace.Precomputed = envelope.Precomputed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.traces = append(h.traces, trace)
	if len(h.traces) >= h.batchSize {
		h.flushTraces()
	}
}

// Flush writes all buffered records out immediately.
func (h *ParquetHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.flushErrors(); err != nil {
		return err
	}
	return h.flushTraces()
}

// flushErrors writes the error buffer to a new Parquet file. Caller holds
// the lock.
func (h *ParquetHandler) flushErrors() error {
	if len(h.errors) == 0 {
		return nil
	}
	path := filepath.Join(h.outputDir, fmt.Sprintf("query_errors_%s_%d.parquet",
		time.Now().Format("20060102_150405"), time.Now().UnixNano()))
	if err := parquet.WriteFile(path, h.errors); err != nil {
		return fmt.Errorf("failed to write error telemetry: %w", err)
	}
	h.errors = h.errors[:0]
	return nil
}

// flushTraces writes the trace buffer to a new Parquet file. Caller holds
// the lock.
func (h *ParquetHandler) flushTraces() error {
	if len(h.traces) == 0 {
		return nil
	}
	path := filepath.Join(h.outputDir, fmt.Sprintf("query_traces_%s_%d.parquet",
		time.Now().Format("20060102_150405"), time.Now().UnixNano()))
	if err := parquet.WriteFile(path, h.traces); err != nil {
		return fmt.Errorf("failed to write query traces: %w", err)
	}
	h.traces = h.traces[:0]
	return nil
}

// WithAttrs implements slog.Handler. Child handlers batch independently.
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{
		next:      h.next.WithAttrs(attrs),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		errors:    make([]ErrorRecord, 0, h.batchSize),
		traces:    make([]QueryTrace, 0, h.batchSize),
	}
}

// WithGroup implements slog.Handler.
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next:      h.next.WithGroup(name),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		errors:    make([]ErrorRecord, 0, h.batchSize),
		traces:    make([]QueryTrace, 0, h.batchSize),
	}
}
