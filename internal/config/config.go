package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Vector store backends.
const (
	StoreQdrant   = "qdrant"
	StorePgvector = "pgvector"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	Collection string `envconfig:"COLLECTION" default:"lectio_corpus"`

	EmbedderProvider string `envconfig:"EMBEDDER" default:"ollama"`
	OllamaURL        string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel      string `envconfig:"OLLAMA_MODEL" default:"nomic-embed-text"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel      string `envconfig:"OPENAI_MODEL" default:"text-embedding-3-small"`

	VectorStore  string `envconfig:"VECTOR_STORE" default:"qdrant"`
	QdrantURL    string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`
	QdrantAPIKey string `envconfig:"QDRANT_API_KEY"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	IndexConcurrency int `envconfig:"INDEX_CONCURRENCY" default:"4"`
	UpsertBatchSize  int `envconfig:"UPSERT_BATCH_SIZE" default:"64"`

	ChunkMaxLen  int `envconfig:"CHUNK_MAX_LEN" default:"1200"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`
	ChunkMinLen  int `envconfig:"CHUNK_MIN_LEN" default:"40"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LECTIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.VectorStore != StoreQdrant && cfg.VectorStore != StorePgvector {
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore)
	}
	if cfg.VectorStore == StorePgvector && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("LECTIO_DATABASE_URL is required for the pgvector backend")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
