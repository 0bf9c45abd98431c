// Package qdrant is a minimal REST client for a Qdrant vector store.
// It covers the three operations the retrieval pipeline needs: ensure a
// collection, upsert points, and nearest-neighbor search with payloads.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/internal/domain"
)

// Config holds connection details for a Qdrant instance.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store talks to Qdrant over its HTTP API. Cosine distance is assumed, so
// scores come back "higher is better" without conversion.
type Store struct {
	url    string
	apiKey string
	client *http.Client
}

// New creates a Store for the given Qdrant base URL.
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection if absent and verifies the
// dimensionality of an existing one against the schema.
func (s *Store) EnsureCollection(ctx context.Context, schema domain.CollectionSchema) error {
	var info collectionInfoResponse
	status, err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, schema.Name), nil, &info)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		if got := info.Result.Config.Params.Vectors.Size; got != schema.Dimension {
			return domain.NewDomainError(domain.ErrCodeModelError,
				fmt.Sprintf("collection %q has dimension %d, model %q produces %d", schema.Name, got, schema.Model, schema.Dimension))
		}
		return nil
	case status == http.StatusNotFound:
		body := map[string]any{
			"vectors": map[string]any{
				"size":     schema.Dimension,
				"distance": "Cosine",
			},
		}
		createStatus, err := s.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, schema.Name), body, nil)
		if err != nil {
			return err
		}
		if createStatus >= 300 {
			return fmt.Errorf("qdrant create collection %q failed with status %d", schema.Name, createStatus)
		}
		return nil
	default:
		return fmt.Errorf("qdrant get collection %q failed with status %d", schema.Name, status)
	}
}

// Upsert writes records by id, waiting for the write to be applied.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		points[i] = map[string]any{
			"id":     rec.ID,
			"vector": rec.Vector,
			"payload": map[string]any{
				"file":   rec.Payload.File,
				"text":   rec.Payload.Text,
				"offset": rec.Payload.Offset,
			},
		}
	}
	status, err := s.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection),
		map[string]any{"points": points}, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant upsert into %q failed with status %d", collection, status)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      string         `json:"id"`
		Score   float32        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search returns the nearest points with payloads, best first.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp searchResponse
	status, err := s.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), body, &resp)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant search in %q failed with status %d", collection, status)
	}

	results := make([]domain.ScoredRecord, 0, len(resp.Result))
	for _, point := range resp.Result {
		rec := domain.ScoredRecord{Score: point.Score}
		rec.ID = point.ID
		if v, ok := point.Payload["file"].(string); ok {
			rec.Payload.File = v
		}
		if v, ok := point.Payload["text"].(string); ok {
			rec.Payload.Text = v
		}
		if v, ok := point.Payload["offset"].(float64); ok {
			rec.Payload.Offset = int(v)
		}
		results = append(results, rec)
	}
	return results, nil
}

// doJSON performs one request, decoding the response into out when non-nil.
// Transport failures and 5xx responses map to SERVICE_UNAVAILABLE; other
// statuses are returned for the caller to interpret.
func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeServiceUnavailable, "vector store unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, domain.NewDomainError(domain.ErrCodeServiceUnavailable,
			fmt.Sprintf("vector store returned %s", resp.Status))
	}

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
