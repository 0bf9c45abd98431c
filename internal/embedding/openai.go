package embedding

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lectio-dev/lectio/internal/domain"
)

// OpenAIConfig holds settings for an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIEmbedder generates embeddings through the OpenAI API. Useful when a
// corpus was indexed against a hosted model instead of a local Ollama one.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder bound to one OpenAI embedding model.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// EmbedQuery embeds a single piece of text.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		if apiErr, ok := err.(*openai.APIError); ok && apiErr.HTTPStatusCode < 500 {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeModelError, "embedding request rejected", err)
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeServiceUnavailable, "embedding service unreachable", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch embeds texts in order, one API call per text.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
func (e *OpenAIEmbedder) Model() string {
	return string(e.model)
}
