package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
)

type stubSearcher struct {
	hits        []model.BM25Hit
	searchErr   error
	indexErr    error
	lastSearch  searchclient.SearchRequest
	lastIndexed model.Chunk
}

func (s *stubSearcher) Search(ctx context.Context, req searchclient.SearchRequest) ([]model.BM25Hit, error) {
	s.lastSearch = req
	return s.hits, s.searchErr
}

func (s *stubSearcher) Index(ctx context.Context, chunk model.Chunk) error {
	s.lastIndexed = chunk
	return s.indexErr
}

func TestSearch_DefaultsTopKAndReturnsHits(t *testing.T) {
	client := &stubSearcher{hits: []model.BM25Hit{{DocumentID: "doc-1", ChunkID: 2, Score: 3.3}}}

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query":"gophers"}`))
	rec := httptest.NewRecorder()
	Search(client).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if client.lastSearch.TopK != defaultSearchTopK {
		t.Errorf("top_k = %d, want default %d", client.lastSearch.TopK, defaultSearchTopK)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1", body["total"])
	}
}

func TestSearch_HitsMarshalSnakeCase(t *testing.T) {
	client := &stubSearcher{hits: []model.BM25Hit{{DocumentID: "doc-1", ChunkID: 2, Score: 3.3, Text: "hi"}}}

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query":"gophers"}`))
	rec := httptest.NewRecorder()
	Search(client).ServeHTTP(rec, req)

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"document_id":"doc-1"`)) {
		t.Errorf("expected snake_case document_id key in response body: %s", rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"chunk_id":2`)) {
		t.Errorf("expected snake_case chunk_id key in response body: %s", rec.Body.String())
	}
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query":""}`))
	rec := httptest.NewRecorder()
	Search(&stubSearcher{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIndex_RequiresDocumentIDAndText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewBufferString(`{"text":"hello"}`))
	rec := httptest.NewRecorder()
	Index(&stubSearcher{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIndex_WritesDeterministicID(t *testing.T) {
	client := &stubSearcher{}
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewBufferString(
		`{"document_id":"doc-1","chunk_id":4,"text":"hello"}`))
	rec := httptest.NewRecorder()
	Index(client).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["id"] != "doc-1::4" {
		t.Errorf("id = %v, want doc-1::4", body["id"])
	}
	if client.lastIndexed.ChunkID != 4 {
		t.Errorf("indexed chunk id = %d, want 4", client.lastIndexed.ChunkID)
	}
}
