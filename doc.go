// Package aggrego answers free-text analytic questions over registered
// data sources.
//
// It combines four cooperating layers:
//
//   - a rule-based classifier that turns question text into a structured
//     intent with a confidence score,
//   - a planner that routes each intent to the cheapest correct strategy:
//     a precomputed fact lookup, an on-demand full scan, a semantic
//     vector search, or a hybrid of a numeric answer with supporting
//     records,
//   - an executor that runs the chosen strategy against the aggregation
//     store, the raw data connector, or the vector index,
//   - a materializer that precomputes aggregate facts on a cadence, each
//     embedded so facts are retrievable by exact key and by similarity.
//
// # Basic usage
//
//	store := aggstore.NewMemoryStore()
//	index := vectorindex.NewMemoryIndex()
//	emb := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{})
//
//	engine, err := aggrego.NewClient(aggstore.NewIndexedStore(store, index, emb.Dimensions()), index, emb, nil, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine.RegisterDataSource("sales-2026", rawdata.NewMemorySource(rows))
//
//	if _, err := engine.MaterializeAggregations(ctx, "sales-2026"); err != nil {
//		log.Fatal(err)
//	}
//	answer, err := engine.AnswerQuery(ctx, "sales-2026", "What are the total sales of Product A?")
//
// Every answer carries its strategy, confidence, and a provenance line
// stating whether the number came from a precomputed fact and how old
// that fact is.
package aggrego
