// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides implementations for
// embedding providers used by the materializer and the query path.
//
// # Supported Providers
//
//   - OpenAI: text-embedding-3-small, text-embedding-3-large, text-embedding-ada-002
//   - EmbedEverything: local embedding runtime, no API key required
//
// # Usage
//
//	emb := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{
//	    Model:     "text-embedding-3-small",
//	    BatchSize: 50,
//	})
//
//	vectors, err := emb.Embed(ctx, []string{"Total sales for Product A: 1250.50"})
//
// # Failure Handling
//
// Wrap any Client in a CircuitBreakerClient to keep a flaky provider from
// stalling materialization runs. The breaker trips after repeated failures
// and sends an alert through the configured Alerter.
package embedder
