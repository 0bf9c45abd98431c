//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lectio-dev/lectio/internal/api/handlers"
	"github.com/lectio-dev/lectio/internal/server"
	"github.com/lectio-dev/lectio/internal/service"
	"github.com/lectio-dev/lectio/internal/testutil"
	"github.com/lectio-dev/lectio/internal/vectorstore/qdrant"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	QdrantC      *testutil.QdrantContainer
	Store        *qdrant.Store
	Embedder     *letterEmbedder
	CorpusDir    string
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a Qdrant container
// and an in-process server. Embeddings are computed deterministically so no
// model service is required.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	qdrantC := testutil.NewQdrantContainer(ctx, t)

	store := qdrant.New(qdrant.Config{URL: qdrantC.URL()})
	embedder := &letterEmbedder{}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, embedder, store, port)

	corpusDir, err := os.MkdirTemp("", "lectio-e2e-corpus-*")
	if err != nil {
		t.Fatalf("failed to create corpus dir: %v", err)
	}

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		QdrantC:      qdrantC,
		Store:        store,
		Embedder:     embedder,
		CorpusDir:    corpusDir,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.QdrantC != nil {
		e.QdrantC.Terminate(e.Ctx)
	}
	if e.CorpusDir != "" {
		os.RemoveAll(e.CorpusDir)
	}
}

// WriteCorpusFile writes a text file into the test corpus directory.
func (e *E2ETestEnv) WriteCorpusFile(name, content string) {
	path := filepath.Join(e.CorpusDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.T.Fatalf("failed to create corpus subdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.T.Fatalf("failed to write corpus file: %v", err)
	}
}

// Post performs a POST request against the running server.
func (e *E2ETestEnv) Post(path string, body interface{}) (int, []byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	resp, err := e.HTTPClient.Post(e.ServerURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// Get performs a GET request against the running server.
func (e *E2ETestEnv) Get(path string) (int, []byte, error) {
	resp, err := e.HTTPClient.Get(e.ServerURL + path)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func startServer(t *testing.T, embedder *letterEmbedder, store *qdrant.Store, port int) (string, func()) {
	searchSvc := service.NewSearchService(embedder, store, e2eCollection)
	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(searchSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

const e2eCollection = "lectio_e2e"

// letterEmbedder maps text to a fixed-dimension vector from rune counts.
// Identical text always produces identical vectors, so a query that repeats
// a chunk verbatim scores 1.0 under cosine similarity.
type letterEmbedder struct{}

const letterDim = 16

func (l *letterEmbedder) embed(text string) []float32 {
	vec := make([]float32, letterDim)
	for i, r := range text {
		vec[(i+int(r))%letterDim] += float32(r % 97)
	}
	// Avoid the zero vector for degenerate input
	vec[0] += 1
	return vec
}

func (l *letterEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return l.embed(text), nil
}

func (l *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = l.embed(t)
	}
	return out, nil
}

func (l *letterEmbedder) Model() string { return "letter-embedder-test" }
