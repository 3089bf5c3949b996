package handlers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/aggstore"
	"github.com/soundprediction/aggrego/pkg/classifier"
	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/vectorindex"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fixedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) Dimensions() int { return 3 }
func (fixedEmbedder) Close() error    { return nil }

func testEngine(t *testing.T) *aggrego.Client {
	t.Helper()

	index := vectorindex.NewMemoryIndex()
	store := aggstore.NewIndexedStore(aggstore.NewMemoryStore(), index, 3)

	catalog := classifier.DefaultCatalog().WithSubjects([]classifier.SubjectLabel{
		{Role: "product", Label: "product a", ID: "prod-a"},
	})

	engine, err := aggrego.NewClient(store, index, fixedEmbedder{}, &aggrego.Config{Catalog: catalog}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	engine.RegisterDataSource("sales-2026", rawdata.NewMemorySource([]rawdata.SalesRecord{
		{RecordID: "r1", ProductID: "prod-a", Product: "Product A", Category: "electronics", Date: jan, Quantity: 2, UnitPrice: 100, Amount: 200},
		{RecordID: "r2", ProductID: "prod-b", Product: "Product B", Category: "furniture", Date: jan, Quantity: 1, UnitPrice: 50, Amount: 50},
	}))
	return engine
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
