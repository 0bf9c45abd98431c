//go:build integration

package pgvector

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/testutil"
)

func setupStore(t *testing.T) (*Store, context.Context) {
	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	pool, err := pgxpool.New(ctx, pg.ConnectionString())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return New(pool), ctx
}

func TestIntegration_PgvectorRoundTrip(t *testing.T) {
	store, ctx := setupStore(t)

	schema := domain.CollectionSchema{Name: "corpus", Dimension: 3, Model: "m", Version: domain.SchemaVersion}
	require.NoError(t, store.EnsureCollection(ctx, schema))
	require.NoError(t, store.EnsureCollection(ctx, schema), "ensure must be idempotent")

	records := []domain.Record{
		domain.NewRecord(domain.Chunk{File: "a.txt", Offset: 0, Text: "alpha"}, []float32{1, 0, 0}),
		domain.NewRecord(domain.Chunk{File: "b.txt", Offset: 0, Text: "beta"}, []float32{0.9, 0.1, 0}),
		domain.NewRecord(domain.Chunk{File: "c.txt", Offset: 0, Text: "gamma"}, []float32{0, 0, 1}),
	}
	require.NoError(t, store.Upsert(ctx, "corpus", records))

	results, err := store.Search(ctx, "corpus", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Payload.Text)
	assert.Equal(t, "beta", results[1].Payload.Text)
	assert.Greater(t, results[0].Score, results[1].Score)

	// re-upsert with the same id overwrites, not duplicates
	records[0].Payload.Text = "alpha v2"
	require.NoError(t, store.Upsert(ctx, "corpus", records[:1]))

	results, err = store.Search(ctx, "corpus", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "alpha v2", results[0].Payload.Text)
}

func TestIntegration_PgvectorDimensionMismatch(t *testing.T) {
	store, ctx := setupStore(t)

	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionSchema{Name: "corpus", Dimension: 3, Model: "m"}))

	err := store.EnsureCollection(ctx, domain.CollectionSchema{Name: "corpus", Dimension: 4, Model: "other"})
	assert.True(t, domain.IsModelError(err))
}
