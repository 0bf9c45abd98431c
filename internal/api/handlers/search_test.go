package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lectio-dev/lectio/internal/domain"
	"github.com/lectio-dev/lectio/internal/service"
)

// MockSearchService is a mock implementation of SearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchOutput), args.Error(1)
}

func postSearch(t *testing.T, handler *SearchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.Search(w, req)
	return w
}

func TestSearchHandler_ReturnsRankedResults(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, service.SearchInput{Query: "who is alice", TopK: 2}).
		Return(&service.SearchOutput{Results: []domain.SearchResult{
			{File: "a.txt", Score: 0.95, Text: "best match"},
			{File: "b.txt", Score: 0.8, Text: "second best"},
		}}, nil)

	w := postSearch(t, handler, `{"query": "who is alice", "top_k": 2}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a.txt", resp.Results[0].File)
	assert.InDelta(t, 0.95, resp.Results[0].Score, 1e-6)
	assert.Equal(t, "best match", resp.Results[0].Text)
	assert.Equal(t, "b.txt", resp.Results[1].File)
}

func TestSearchHandler_EmptyResultsSerializeAsArray(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, mock.Anything).
		Return(&service.SearchOutput{Results: nil}, nil)

	w := postSearch(t, handler, `{"query": "nothing like this", "top_k": 5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results": []}`, w.Body.String())
}

func TestSearchHandler_MalformedBody(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	w := postSearch(t, handler, `{"query": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Search")
}

func TestSearchHandler_ValidationErrorMapsTo400(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, service.SearchInput{Query: "", TopK: 5}).
		Return(nil, domain.ErrEmptyQuery)

	w := postSearch(t, handler, `{"query": "", "top_k": 5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "query")
}

func TestSearchHandler_DownstreamUnavailableMapsTo503(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, mock.Anything).
		Return(nil, domain.NewDomainError(domain.ErrCodeServiceUnavailable, "embedding service unreachable"))

	w := postSearch(t, handler, `{"query": "q", "top_k": 5}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchHandler_ModelErrorMapsTo502(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, mock.Anything).
		Return(nil, domain.ErrEmptyEmbedding)

	w := postSearch(t, handler, `{"query": "q", "top_k": 5}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
