package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-dev/lectio/internal/chunker"
	"github.com/lectio-dev/lectio/internal/corpus"
	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/vectorstore"
)

// stubEmbedder returns a fixed-dimension vector derived from the text and
// fails for texts containing a poison marker.
type stubEmbedder struct {
	dimension int
	failOn    string
	calls     int
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, domain.ErrMalformedEmbedding
	}
	vector := make([]float32, s.dimension)
	for i, r := range []rune(text) {
		vector[i%s.dimension] += float32(r)
	}
	return vector, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := s.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (s *stubEmbedder) Model() string { return "stub" }

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func newIndexer(t *testing.T, dir string, embedder *stubEmbedder, store vectorstore.Store, cfg Config) *Indexer {
	t.Helper()
	src, err := corpus.NewDirSource(dir)
	require.NoError(t, err)
	ch, err := chunker.New(chunker.Config{MaxLen: 100, Overlap: 20})
	require.NoError(t, err)
	if cfg.Collection == "" {
		cfg.Collection = "corpus"
	}
	if cfg.MinChunkLen == 0 {
		cfg.MinChunkLen = 1
	}
	return New(src, ch, embedder, store, cfg)
}

func TestRun_IndexesCorpus(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt":        strings.Repeat("alpha paragraph text ", 10),
		"nested/b.txt": strings.Repeat("beta paragraph text ", 10),
	})
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{})

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	assert.Greater(t, summary.Chunks, 2)
	assert.Equal(t, summary.Chunks, summary.Indexed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, summary.Indexed, store.Count("corpus"))
}

func TestRun_IsIdempotent(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt": strings.Repeat("deterministic ids make reruns overwrite ", 8),
	})
	store := vectorstore.NewMemoryStore()

	first, err := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{}).Run(context.Background())
	require.NoError(t, err)
	countAfterFirst := store.Count("corpus")

	second, err := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Indexed, second.Indexed)
	assert.Equal(t, countAfterFirst, store.Count("corpus"))
}

func TestRun_PartialFailureContinues(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		files[name+".txt"] = "good " + name + " " + strings.Repeat("x", 50)
	}
	files["poison.txt"] = "POISON " + strings.Repeat("y", 50)

	dir := writeCorpus(t, files)
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4, failOn: "POISON"}, store, Config{})

	summary, err := ix.Run(context.Background())
	require.NotNil(t, summary)
	assert.Equal(t, domain.ErrCodePartialIndexFailure, domain.ErrorCode(err))

	assert.Equal(t, 10, summary.Files)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 9, summary.Indexed)
	assert.Equal(t, 9, store.Count("corpus"))
}

func TestRun_EmptyCorpusIsValidationError(t *testing.T) {
	dir := t.TempDir()
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{})

	_, err := ix.Run(context.Background())
	assert.True(t, domain.IsValidation(err))
}

func TestRun_FirstEmbeddingFailureIsHardFailure(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt": "POISON " + strings.Repeat("z", 50),
	})
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4, failOn: "POISON"}, store, Config{})

	summary, err := ix.Run(context.Background())
	assert.Nil(t, summary)
	assert.True(t, domain.IsModelError(err))
}

func TestRun_SkipsTinyChunks(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"tiny.txt": "too short",
		"big.txt":  strings.Repeat("a proper paragraph with enough content ", 5),
	})
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{MinChunkLen: 40})

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	for _, name := range []string{"tiny.txt"} {
		results, err := store.Search(context.Background(), "corpus", []float32{1, 1, 1, 1}, 50)
		require.NoError(t, err)
		for _, rec := range results {
			assert.NotEqual(t, name, rec.Payload.File)
		}
	}
}

func TestRun_BatchesUpserts(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt": strings.Repeat("lots of text to force multiple chunks and batches ", 40),
	})
	store := vectorstore.NewMemoryStore()
	ix := newIndexer(t, dir, &stubEmbedder{dimension: 4}, store, Config{BatchSize: 3})

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Indexed, store.Count("corpus"))
	assert.Greater(t, summary.Indexed, 3)
}
