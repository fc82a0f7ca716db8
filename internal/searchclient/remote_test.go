package searchclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/connexus-ai/hybridrag/internal/model"
)

func TestRemoteClient_SearchForwardsToSearchNode(t *testing.T) {
	var gotPath string
	var gotBody remoteSearchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(remoteSearchResponse{
			Hits:  []model.BM25Hit{{DocumentID: "doc-1", ChunkID: 3, Score: 9.5}},
			Total: 1,
		})
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)
	hits, err := client.Search(context.Background(), SearchRequest{Query: "gophers", TopK: 7})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
	if gotBody.Query != "gophers" || gotBody.TopK != 7 {
		t.Errorf("forwarded body = %+v", gotBody)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-1" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestRemoteClient_IndexForwardsToSearchNode(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRemote(srv.URL)
	err := client.Index(context.Background(), model.Chunk{DocumentID: "doc-1", ChunkID: 0, Text: "hi"})
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if gotPath != "/index" {
		t.Errorf("path = %q, want /index", gotPath)
	}
}
