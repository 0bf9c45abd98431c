package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lectio-dev/lectio/internal/api"
	"github.com/lectio-dev/lectio/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type SearchResultResponse struct {
	File  string  `json:"file"`
	Score float32 `json:"score"`
	Text  string  `json:"text"`
}

type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.svc.Search(r.Context(), service.SearchInput{
		Query: req.Query,
		TopK:  req.TopK,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	// Results is never null: an empty match set serializes as [].
	results := make([]SearchResultResponse, len(output.Results))
	for i, res := range output.Results {
		results[i] = SearchResultResponse{
			File:  res.File,
			Score: res.Score,
			Text:  res.Text,
		}
	}

	api.JSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Health reports process liveness. It does not probe downstream services.
func Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
