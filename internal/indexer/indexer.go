// Package indexer walks a corpus, embeds its chunks, and upserts them into
// a vector store collection.
package indexer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lectio-dev/lectio/internal/chunker"
	"github.com/lectio-dev/lectio/internal/corpus"
	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/embedding"
	"github.com/lectio-dev/lectio/internal/vectorstore"
)

// Config controls one indexing run.
type Config struct {
	Collection string

	// MinChunkLen drops very short chunks that carry no retrievable
	// context (defaults to 40 runes).
	MinChunkLen int

	// Concurrency caps in-flight embedding requests (defaults to 4).
	Concurrency int

	// BatchSize is the number of records per upsert (defaults to 64).
	BatchSize int
}

// Summary reports what an indexing run accomplished.
type Summary struct {
	Files   int
	Chunks  int
	Indexed int
	Failed  int
}

// Indexer runs the offline indexing pipeline. It is safe to re-run on an
// unchanged corpus: record ids are deterministic, so upserts overwrite.
type Indexer struct {
	source   corpus.Source
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    vectorstore.Store
	cfg      Config
}

// New assembles an Indexer from its collaborators.
func New(source corpus.Source, ch *chunker.Chunker, embedder embedding.Embedder, store vectorstore.Store, cfg Config) *Indexer {
	if cfg.MinChunkLen <= 0 {
		cfg.MinChunkLen = 40
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	return &Indexer{
		source:   source,
		chunker:  ch,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Run indexes the whole corpus. A failure embedding or upserting one chunk
// does not abort the run; failures are counted, logged, and surfaced as a
// PARTIAL_INDEX_FAILURE alongside the summary. Hard failures (empty corpus,
// unreachable services before any progress) return a nil summary.
func (ix *Indexer) Run(ctx context.Context) (*Summary, error) {
	chunks, files, err := ix.collectChunks(ctx)
	if err != nil {
		return nil, err
	}
	if files == 0 {
		return nil, domain.ErrCorpusEmpty
	}

	summary := &Summary{Files: files, Chunks: len(chunks)}
	if len(chunks) == 0 {
		return summary, nil
	}

	// The first embedding of the run fixes the collection dimensionality.
	// Failing here is a hard failure: without a dimension there is no
	// collection to index into.
	firstVector, err := ix.embedder.EmbedQuery(ctx, chunks[0].Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed first chunk: %w", err)
	}

	schema := domain.CollectionSchema{
		Name:      ix.cfg.Collection,
		Dimension: len(firstVector),
		Model:     ix.embedder.Model(),
		Version:   domain.SchemaVersion,
	}
	if err := ix.store.EnsureCollection(ctx, schema); err != nil {
		return nil, err
	}

	vectors := ix.embedAll(ctx, chunks, firstVector, schema.Dimension, summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.upsertAll(ctx, chunks, vectors, summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if summary.Failed > 0 {
		return summary, domain.NewDomainError(domain.ErrCodePartialIndexFailure,
			fmt.Sprintf("%d of %d chunks failed to index", summary.Failed, summary.Chunks))
	}
	return summary, nil
}

func (ix *Indexer) collectChunks(ctx context.Context) ([]domain.Chunk, int, error) {
	var chunks []domain.Chunk
	files := 0
	err := ix.source.Walk(ctx, func(doc corpus.Document) error {
		files++
		for _, chunk := range ix.chunker.Chunk(doc.Path, doc.Text) {
			if len([]rune(chunk.Text)) < ix.cfg.MinChunkLen {
				continue
			}
			chunks = append(chunks, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return chunks, files, nil
}

// embedAll embeds every chunk with bounded concurrency. vectors[i] is nil
// when chunk i failed; failures are counted in the summary.
func (ix *Indexer) embedAll(ctx context.Context, chunks []domain.Chunk, firstVector []float32, dimension int, summary *Summary) [][]float32 {
	vectors := make([][]float32, len(chunks))
	vectors[0] = firstVector

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	for i := 1; i < len(chunks); i++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			vector, err := ix.embedder.EmbedQuery(gctx, chunks[i].Text)
			if err == nil && len(vector) != dimension {
				err = domain.ErrDimensionMismatch
			}
			if err != nil {
				log.Printf("failed to embed chunk %s offset %d: %v", chunks[i].File, chunks[i].Offset, err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return nil
			}
			vectors[i] = vector
			return nil
		})
	}
	_ = g.Wait()
	return vectors
}

// upsertAll writes the successfully embedded chunks in batches. A failed
// batch counts its records as failures and the run continues.
func (ix *Indexer) upsertAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32, summary *Summary) {
	batch := make([]domain.Record, 0, ix.cfg.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := ix.store.Upsert(ctx, ix.cfg.Collection, batch); err != nil {
			log.Printf("failed to upsert batch of %d records: %v", len(batch), err)
			summary.Failed += len(batch)
		} else {
			summary.Indexed += len(batch)
		}
		batch = batch[:0]
	}

	for i, chunk := range chunks {
		if vectors[i] == nil {
			continue
		}
		batch = append(batch, domain.NewRecord(chunk, vectors[i]))
		if len(batch) >= ix.cfg.BatchSize {
			flush()
		}
	}
	flush()
}
