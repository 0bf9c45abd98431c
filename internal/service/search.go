package service

import (
	"context"
	"sort"
	"strings"

	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/telemetry"
)

// MaxTopK caps the result count a single query may request.
const MaxTopK = 50

// Embedder is the embedding dependency of the search service.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the vector store dependency of the search service.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredRecord, error)
}

// SearchInput represents input for the search operation.
type SearchInput struct {
	Query string
	TopK  int
}

// SearchOutput represents output from the search operation.
type SearchOutput struct {
	Results []domain.SearchResult
}

// SearchService answers free-text queries against one indexed collection.
// It is stateless and read-only; every request embeds the query and runs a
// nearest-neighbor search.
type SearchService struct {
	embedder   Embedder
	store      VectorSearcher
	collection string
}

// NewSearchService creates a SearchService bound to one collection.
func NewSearchService(embedder Embedder, store VectorSearcher, collection string) *SearchService {
	return &SearchService{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Search validates the input, embeds the query, and returns the topK nearest
// chunks best-first. Validation failures are rejected before any network
// call. Repeated identical queries against an unchanged collection return
// identical ordering: ties on score break by ascending record id.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if input.TopK <= 0 {
		return nil, domain.ErrNonPositiveTopK
	}
	topK := input.TopK
	if topK > MaxTopK {
		topK = MaxTopK
	}

	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Collection: s.collection,
		Operation:  "search",
	})
	defer span.End()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	scored, err := s.store.Search(ctx, s.collection, vector, topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]domain.SearchResult, len(scored))
	for i, rec := range scored {
		results[i] = domain.SearchResult{
			File:  rec.Payload.File,
			Score: rec.Score,
			Text:  rec.Payload.Text,
		}
	}
	return &SearchOutput{Results: results}, nil
}
