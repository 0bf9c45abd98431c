//go:build e2e

package e2e

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-dev/lectio/internal/chunker"
	"github.com/lectio-dev/lectio/internal/corpus"
	"github.com/lectio-dev/lectio/internal/indexer"
)

const (
	aliceText = "Alice was beginning to get very tired of sitting by her sister on the bank, and of having nothing to do."
	whaleText = "Call me Ishmael. Some years ago, never mind how long precisely, I thought I would sail about a little."
	timeText  = "It was a bright cold day in April, and the clocks were striking thirteen across the whole town."
)

func indexCorpus(t *testing.T, env *E2ETestEnv) *indexer.Summary {
	t.Helper()

	source, err := corpus.NewDirSource(env.CorpusDir)
	require.NoError(t, err)

	ch, err := chunker.New(chunker.DefaultConfig())
	require.NoError(t, err)

	ix := indexer.New(source, ch, env.Embedder, env.Store, indexer.Config{
		Collection: e2eCollection,
	})

	summary, err := ix.Run(env.Ctx)
	require.NoError(t, err)
	return summary
}

type searchResponse struct {
	Results []struct {
		File  string  `json:"file"`
		Score float32 `json:"score"`
		Text  string  `json:"text"`
	} `json:"results"`
}

func TestE2E_IndexAndSearch(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.WriteCorpusFile("alice.txt", aliceText)
	env.WriteCorpusFile("moby.txt", whaleText)
	env.WriteCorpusFile("novels/orwell.md", timeText)
	env.WriteCorpusFile("ignored.bin", "binary payload, not indexed")

	summary := indexCorpus(t, env)
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 3, summary.Indexed)
	assert.Equal(t, 0, summary.Failed)

	t.Run("exact text ranks its own file first", func(t *testing.T) {
		status, body, err := env.Post("/search", map[string]interface{}{
			"query": aliceText,
			"top_k": 3,
		})
		require.NoError(t, err)
		require.Equal(t, 200, status)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, "alice.txt", resp.Results[0].File)
		assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-3)
		assert.Equal(t, aliceText, resp.Results[0].Text)
	})

	t.Run("top_k caps the result count", func(t *testing.T) {
		status, body, err := env.Post("/search", map[string]interface{}{
			"query": whaleText,
			"top_k": 2,
		})
		require.NoError(t, err)
		require.Equal(t, 200, status)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.LessOrEqual(t, len(resp.Results), 2)
	})

	t.Run("nested files keep relative slash paths", func(t *testing.T) {
		status, body, err := env.Post("/search", map[string]interface{}{
			"query": timeText,
			"top_k": 1,
		})
		require.NoError(t, err)
		require.Equal(t, 200, status)

		var resp searchResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "novels/orwell.md", resp.Results[0].File)
	})
}

func TestE2E_Reindexing(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.WriteCorpusFile("alice.txt", aliceText)
	env.WriteCorpusFile("moby.txt", whaleText)

	first := indexCorpus(t, env)
	second := indexCorpus(t, env)

	// Ids are deterministic, so re-running on an unchanged corpus overwrites
	// instead of duplicating.
	assert.Equal(t, first.Indexed, second.Indexed)

	status, body, err := env.Post("/search", map[string]interface{}{
		"query": aliceText,
		"top_k": 10,
	})
	require.NoError(t, err)
	require.Equal(t, 200, status)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(body, &resp))

	seen := map[string]int{}
	for _, r := range resp.Results {
		seen[r.File+"|"+r.Text]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "duplicate record for %s", key)
	}
}

func TestE2E_Validation(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.WriteCorpusFile("alice.txt", aliceText)
	indexCorpus(t, env)

	t.Run("empty query returns 400", func(t *testing.T) {
		status, body, err := env.Post("/search", map[string]interface{}{
			"query": "   ",
			"top_k": 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 400, status)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(body, &errResp))
		assert.NotEmpty(t, errResp["error"])
	})

	t.Run("non-positive top_k returns 400", func(t *testing.T) {
		status, _, err := env.Post("/search", map[string]interface{}{
			"query": "alice",
			"top_k": 0,
		})
		require.NoError(t, err)
		assert.Equal(t, 400, status)
	})

	t.Run("health endpoint", func(t *testing.T) {
		status, body, err := env.Get("/health")
		require.NoError(t, err)
		assert.Equal(t, 200, status)
		assert.JSONEq(t, `{"status": "ok"}`, string(body))
	})
}
