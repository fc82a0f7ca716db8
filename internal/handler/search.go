package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/connexus-ai/hybridrag/internal/httpx"
	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
)

const (
	defaultSearchTopK = 10
	minSearchTopK     = 1
	maxSearchTopK     = 50
)

// SearchRequest is the POST /search request body.
type SearchRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	DocumentIDs []string `json:"document_ids"`
	Sources     []string `json:"sources"`
}

// IndexRequest is the POST /index request body.
type IndexRequest struct {
	DocumentID string   `json:"document_id"`
	ChunkID    int      `json:"chunk_id"`
	Source     string   `json:"source"`
	Page       *int     `json:"page"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
}

// Searcher is the subset of the lexical search client handlers need.
type Searcher interface {
	Search(ctx context.Context, req searchclient.SearchRequest) ([]model.BM25Hit, error)
	Index(ctx context.Context, chunk model.Chunk) error
}

// Search handles POST /search.
func Search(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Query) < 1 {
			httpx.Error(w, http.StatusBadRequest, "query must be at least 1 character")
			return
		}

		topK := req.TopK
		if topK == 0 {
			topK = defaultSearchTopK
		}

		hits, err := client.Search(r.Context(), searchclient.SearchRequest{
			Query:       req.Query,
			TopK:        topK,
			DocumentIDs: req.DocumentIDs,
			Sources:     req.Sources,
		})
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "search failed: "+err.Error())
			return
		}

		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"hits":  hits,
			"total": len(hits),
		})
	}
}

// Index handles POST /index.
func Index(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IndexRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DocumentID == "" || req.Text == "" {
			httpx.Error(w, http.StatusBadRequest, "document_id and text are required")
			return
		}

		chunk := model.Chunk{
			DocumentID: req.DocumentID,
			ChunkID:    req.ChunkID,
			Source:     req.Source,
			Page:       req.Page,
			Text:       req.Text,
			Tags:       req.Tags,
		}

		if err := client.Index(r.Context(), chunk); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "index failed: "+err.Error())
			return
		}

		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"index":  "docs_bm25",
			"id":     model.VectorID(chunk.DocumentID, chunk.ChunkID),
			"result": "indexed",
		})
	}
}
