// Package vectorstore defines the vector store boundary shared by the
// indexer and the search service.
package vectorstore

import (
	"context"

	"github.com/lectio-dev/lectio/internal/domain"
)

// Store persists embedding vectors and supports nearest-neighbor search.
// Upserts are idempotent per record id, so concurrent upserts of different
// chunks need no coordination beyond the store's own write semantics.
type Store interface {
	// EnsureCollection creates the named collection if absent and fails
	// fast when an existing collection disagrees with the schema's
	// dimensionality.
	EnsureCollection(ctx context.Context, schema domain.CollectionSchema) error

	// Upsert inserts or overwrites records by id.
	Upsert(ctx context.Context, collection string, records []domain.Record) error

	// Search returns up to limit records nearest to vector by cosine
	// similarity, best first. Scores are "higher is better" across all
	// implementations.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error)
}
