package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QdrantIndex implements Index against the Qdrant REST API.
type QdrantIndex struct {
	baseURL string
	client  *http.Client
}

// NewQdrantIndex creates a Qdrant client for the given host and port.
func NewQdrantIndex(host string, port int) *QdrantIndex {
	return &QdrantIndex{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type qdrantSearchRequest struct {
	Vector      []float32              `json:"vector"`
	Limit       int                    `json:"limit"`
	WithPayload bool                   `json:"with_payload"`
	Filter      map[string]interface{} `json:"filter,omitempty"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      interface{}            `json:"id"`
		Score   float64                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// EnsureCollection creates the collection with cosine distance if it does
// not already exist.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, collection string, dimensions int) error {
	status, _, err := q.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", collection), nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	status, respBody, err := q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", collection), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to create collection %s: %s", collection, respBody)
	}
	return nil
}

// Upsert inserts or replaces points. Points sharing an ID with an existing
// point overwrite it, which is what keeps fact re-materialization from
// accumulating duplicates.
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	body := map[string]interface{}{"points": points}
	status, respBody, err := q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points", collection), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to upsert %d points into %s: %s", len(points), collection, respBody)
	}
	return nil
}

// Search returns the topK most similar points.
func (q *QdrantIndex) Search(ctx context.Context, collection string, vector []float32, filter Filter, topK int) ([]ScoredPoint, error) {
	req := qdrantSearchRequest{
		Vector:      vector,
		Limit:       topK,
		WithPayload: true,
	}
	if len(filter) > 0 {
		must := make([]map[string]interface{}, 0, len(filter))
		for field, value := range filter {
			must = append(must, map[string]interface{}{
				"key":   field,
				"match": map[string]interface{}{"value": value},
			})
		}
		req.Filter = map[string]interface{}{"must": must}
	}

	status, respBody, err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", collection), req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search in %s failed: %s", collection, respBody)
	}

	var parsed qdrantSearchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]ScoredPoint, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		results = append(results, ScoredPoint{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

// Close implements Index.
func (q *QdrantIndex) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *QdrantIndex) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
