package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_PostSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Query)
		assert.Equal(t, 3, req.TopK)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"file": "a.txt", "score": 0.9, "text": "hello"}]}`))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	raw, err := api.Post("/search", SearchRequest{Query: "alice", TopK: 3})
	require.NoError(t, err)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.txt", resp.Results[0].File)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "query is empty"}`))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := api.Post("/search", SearchRequest{Query: "", TopK: 5})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "query is empty", apiErr.Message)
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	api := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := api.Get("/health")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestNewAPIClientWithCmd_EnvFallback(t *testing.T) {
	t.Setenv(envAPIURL, "http://example.test:9999")

	api := NewAPIClientWithCmd(nil)
	assert.Equal(t, "http://example.test:9999", api.baseURL)
}

func TestNewAPIClientWithCmd_Default(t *testing.T) {
	t.Setenv(envAPIURL, "")

	api := NewAPIClientWithCmd(nil)
	assert.Equal(t, defaultAPIURL, api.baseURL)
}
