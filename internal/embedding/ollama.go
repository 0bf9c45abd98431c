package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/lectio-dev/lectio/internal/domain"
)

// OllamaConfig holds connection details for an Ollama server.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaEmbedder calls Ollama's /api/embeddings endpoint. The request and
// response shapes are Ollama's own API and are treated as a stable external
// contract.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaEmbedder creates an embedder bound to one Ollama model.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedQuery embeds a single piece of text.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeServiceUnavailable, "embedding service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, domain.NewDomainError(domain.ErrCodeServiceUnavailable,
			fmt.Sprintf("embedding service returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		// 4xx means the server is up but rejected the request, typically an
		// unknown model name.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewDomainError(domain.ErrCodeModelError,
			fmt.Sprintf("embedding service rejected request (%s): %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeModelError, "embedding service returned malformed JSON", err)
	}

	return convertVector(out.Embedding)
}

// EmbedBatch embeds texts in order, one /api/embeddings call per text.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// Model returns the configured model name.
func (e *OllamaEmbedder) Model() string {
	return e.model
}

func convertVector(raw []float64) ([]float32, error) {
	if len(raw) == 0 {
		return nil, domain.ErrEmptyEmbedding
	}
	vector := make([]float32, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.ErrMalformedEmbedding
		}
		vector[i] = float32(v)
	}
	return vector, nil
}
