package embedder

import "context"

// Client embeds text into fixed-dimension vectors.
//
// Implementations must be safe for concurrent use; the query path and the
// materializer share one client.
type Client interface {
	// Embed generates embeddings for the given texts in one batch.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common embedder settings.
type Config struct {
	Model      string
	BaseURL    string
	Dimensions int
	// BatchSize caps how many texts are sent per provider request.
	BatchSize int
}

const (
	// DefaultModel is the model the ingestion pipeline embeds records
	// with; its vectors are 1536-dimensional.
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536
	DefaultBatchSize  = 50
)
