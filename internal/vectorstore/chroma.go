// Package vectorstore is a thin HTTP client over Chroma's REST API,
// implementing the dense-vector side of the chunk addressing scheme: every
// chunk's primary key is the deterministic string
// "{document_id}::{chunk_id}" (model.VectorID), never a store-generated id.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// Store is a Chroma-backed vector store adapter.
type Store struct {
	baseURL    string
	collection string
	client     *http.Client
	collID     string // resolved lazily on first use
}

// New creates a Store talking to a Chroma server rooted at baseURL, using
// the named collection (created if it does not already exist).
func New(baseURL, collection string) *Store {
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		client:     &http.Client{},
	}
}

// Upsert writes chunks keyed by model.VectorID, with their embedding and
// flattened metadata. Metadata sanitization drops null values (Page==nil)
// and joins Tags with ",": the store accepts only scalar metadata values.
func (s *Store) Upsert(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	collID, err := s.ensureCollection(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore.Upsert: %w", err)
	}

	ids := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, c := range chunks {
		ids[i] = model.VectorID(c.DocumentID, c.ChunkID)
		embeddings[i] = c.Embedding
		documents[i] = c.Text
		metadatas[i] = sanitizeMetadata(c)
	}

	body, err := json.Marshal(map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	})
	if err != nil {
		return fmt.Errorf("vectorstore.Upsert: marshal: %w", err)
	}

	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/upsert", collID), body, nil)
}

// GetByIDs batch-fetches chunks by their vector-store id. Ids not present
// in the store are simply omitted from the result, never an error —
// BM25 and the vector store may be transiently inconsistent.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]model.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	collID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.GetByIDs: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"ids":     ids,
		"include": []string{"documents", "metadatas", "embeddings"},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore.GetByIDs: marshal: %w", err)
	}

	var resp getResponse
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/get", collID), body, &resp); err != nil {
		return nil, fmt.Errorf("vectorstore.GetByIDs: %w", err)
	}

	return resp.toCandidates(nil), nil
}

// QueryByVector performs approximate nearest-neighbor search under cosine
// distance, returning the top_k nearest chunks. When where is non-empty,
// results are additionally filtered by equality on those metadata fields
// (used for the document_id-restricted path).
func (s *Store) QueryByVector(ctx context.Context, vector []float32, topK int, where map[string]string) ([]model.Candidate, error) {
	collID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.QueryByVector: %w", err)
	}

	req := map[string]interface{}{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "embeddings", "distances"},
	}
	if len(where) > 0 {
		req["where"] = equalityFilter(where)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.QueryByVector: marshal: %w", err)
	}

	var resp queryResponse
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", collID), body, &resp); err != nil {
		return nil, fmt.Errorf("vectorstore.QueryByVector: %w", err)
	}

	return resp.toCandidates(), nil
}

// Ping checks that the Chroma server is reachable via its heartbeat
// endpoint, satisfying handler.Pinger for the ingest and query nodes'
// health checks.
func (s *Store) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("vectorstore.Ping: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore.Ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("vectorstore.Ping: status %d", resp.StatusCode)
	}
	return nil
}

// GetWhere returns every chunk matching an equality filter on metadata
// fields. The retrieval engine does not call it: neighbor expansion
// fetches exact ids via GetByIDs, and the restricted (document_id-scoped)
// path uses QueryByVector with a where filter.
func (s *Store) GetWhere(ctx context.Context, where map[string]string) ([]model.Candidate, error) {
	collID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.GetWhere: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"where":   equalityFilter(where),
		"include": []string{"documents", "metadatas", "embeddings"},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore.GetWhere: marshal: %w", err)
	}

	var resp getResponse
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/get", collID), body, &resp); err != nil {
		return nil, fmt.Errorf("vectorstore.GetWhere: %w", err)
	}

	return resp.toCandidates(nil), nil
}

func equalityFilter(where map[string]string) map[string]interface{} {
	if len(where) == 1 {
		for k, v := range where {
			return map[string]interface{}{k: v}
		}
	}
	clauses := make([]map[string]interface{}, 0, len(where))
	for k, v := range where {
		clauses = append(clauses, map[string]interface{}{k: v})
	}
	return map[string]interface{}{"$and": clauses}
}

// ensureCollection resolves (and lazily creates) the named collection's id.
func (s *Store) ensureCollection(ctx context.Context) (string, error) {
	if s.collID != "" {
		return s.collID, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"name":          s.collection,
		"get_or_create": true,
		"metadata":      map[string]string{"hnsw:space": "cosine"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/api/v1/collections", body, &resp); err != nil {
		return "", err
	}
	s.collID = resp.ID
	return s.collID, nil
}

func (s *Store) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// sanitizeMetadata flattens a chunk's metadata to the store's scalar-only
// schema: Tags is comma-joined, a nil Page is simply omitted.
func sanitizeMetadata(c model.Chunk) map[string]interface{} {
	meta := map[string]interface{}{
		"document_id": c.DocumentID,
		"chunk_id":    c.ChunkID,
		"source":      c.Source,
	}
	if c.Page != nil {
		meta["page"] = *c.Page
	}
	if len(c.Tags) > 0 {
		meta["tags"] = strings.Join(c.Tags, ",")
	}
	return meta
}
