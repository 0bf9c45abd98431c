package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lectio-dev/lectio/internal/domain"
)

// MemoryStore is an in-process Store used by tests and small corpora.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	records   map[string]domain.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, schema domain.CollectionSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[schema.Name]; ok {
		if existing.dimension != schema.Dimension {
			return domain.NewDomainError(domain.ErrCodeModelError,
				fmt.Sprintf("collection %q has dimension %d, schema wants %d", schema.Name, existing.dimension, schema.Dimension))
		}
		return nil
	}

	s.collections[schema.Name] = &memoryCollection{
		dimension: schema.Dimension,
		records:   make(map[string]domain.Record),
	}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, rec := range records {
		if len(rec.Vector) != coll.dimension {
			return domain.ErrDimensionMismatch
		}
		coll.records[rec.ID] = rec
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	scored := make([]domain.ScoredRecord, 0, len(coll.records))
	for _, rec := range coll.records {
		scored = append(scored, domain.ScoredRecord{
			Record: rec,
			Score:  cosineSimilarity(vector, rec.Vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Count reports how many records the named collection holds.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0
	}
	return len(coll.records)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
