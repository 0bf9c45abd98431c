package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectio-dev/lectio/internal/config"
	"github.com/lectio-dev/lectio/internal/embedding"
	"github.com/lectio-dev/lectio/internal/vectorstore"
	"github.com/lectio-dev/lectio/internal/vectorstore/pgvector"
	"github.com/lectio-dev/lectio/internal/vectorstore/qdrant"
)

// buildEmbedder constructs the configured embedding backend, wrapped with
// retry on transient failures.
func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.EmbedderProvider {
	case "ollama":
		inner = embedding.NewOllamaEmbedder(embedding.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		})
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("LECTIO_OPENAI_API_KEY is required for the openai embedder")
		}
		inner = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.EmbedderProvider)
	}
	return embedding.WithRetry(inner, embedding.DefaultRetryPolicy()), nil
}

// buildStore constructs the configured vector store backend. The returned
// cleanup closes any underlying connection pool.
func buildStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, func(), error) {
	switch cfg.VectorStore {
	case config.StoreQdrant:
		store := qdrant.New(qdrant.Config{
			URL:    cfg.QdrantURL,
			APIKey: cfg.QdrantAPIKey,
		})
		return store, func() {}, nil
	case config.StorePgvector:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return pgvector.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore)
	}
}
