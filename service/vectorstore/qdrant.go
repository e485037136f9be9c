package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultQdrantTimeout = 30 * time.Second

// QdrantStore 通过REST接口访问Qdrant，统一使用余弦距离
type QdrantStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ Store = &QdrantStore{}

func NewQdrantStore(endpoint, apiKey string) *QdrantStore {
	return &QdrantStore{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultQdrantTimeout},
	}
}

// EnsureCollection 集合已存在且schema一致时Qdrant返回200，不会被重建
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", s.endpoint, name)
	if err := s.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("failed to create collection %s: %v", name, err)
	}
	return nil
}

func (s *QdrantStore) collectionExists(ctx context.Context, name string) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s/exists", s.endpoint, name)
	var resp struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return false, fmt.Errorf("failed to check collection %s: %v", name, err)
	}
	return resp.Result.Exists, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]map[string]any, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}

	body := map[string]any{"points": qdrantPoints}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.endpoint, collection)
	if err := s.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("failed to upsert vectors: %v", err)
	}
	return nil
}

func (s *QdrantStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	body := map[string]any{
		"ids":          []string{id},
		"with_payload": false,
		"with_vector":  false,
	}
	var resp struct {
		Result []struct {
			ID any `json:"id"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points", s.endpoint, collection)
	if err := s.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return false, fmt.Errorf("failed to retrieve vector %s: %v", id, err)
	}
	return len(resp.Result) > 0, nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int, filter *SearchFilter) ([]SearchResult, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil && filter.DocumentID != "" {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "document_id",
					"match": map[string]any{"value": filter.DocumentID},
				},
			},
		}
	}

	var resp struct {
		Result []struct {
			ID      string  `json:"id"`
			Score   float32 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.endpoint, collection)
	if err := s.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to search vectors: %v", err)
	}

	results := make([]SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, SearchResult{
			ID:      r.ID,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

func (s *QdrantStore) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %v", err)
		}
	}
	return nil
}
