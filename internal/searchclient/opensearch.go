// Package searchclient is a thin HTTP client over OpenSearch's REST API,
// implementing the lexical half of retrieval: BM25 scoring over chunk text.
package searchclient

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

// Client is an OpenSearch-backed lexical search adapter.
type Client struct {
	baseURL  string
	index    string
	user     string
	password string
	client   *http.Client
	ensured  bool
}

// New creates a Client talking to an OpenSearch cluster rooted at baseURL
// (scheme://host:port), targeting the named index.
func New(baseURL, index, user, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		index:    index,
		user:     user,
		password: password,
		client:   &http.Client{},
	}
}

// indexMapping is the fixed schema: document_id/source/tags are keyword
// (exact-match, aggregatable), chunk_id/page are integer, text is the only
// analyzed (full-text-searchable) field.
const indexMapping = `{
  "mappings": {
    "properties": {
      "document_id": {"type": "keyword"},
      "chunk_id":    {"type": "integer"},
      "source":      {"type": "keyword"},
      "page":        {"type": "integer"},
      "text":        {"type": "text"},
      "tags":        {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates the index with its fixed mapping if it does not
// already exist. Safe to call repeatedly; a 400 "already exists" response
// is treated as success.
func (c *Client) EnsureIndex(ctx context.Context) error {
	if c.ensured {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+c.index, nil)
	if err != nil {
		return fmt.Errorf("searchclient.EnsureIndex: %w", err)
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("searchclient.EnsureIndex: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		c.ensured = true
		return nil
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+c.index, strings.NewReader(indexMapping))
	if err != nil {
		return fmt.Errorf("searchclient.EnsureIndex: %w", err)
	}
	putReq.Header.Set("Content-Type", "application/json")
	c.setAuth(putReq)

	putResp, err := c.client.Do(putReq)
	if err != nil {
		return fmt.Errorf("searchclient.EnsureIndex: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		body, _ := io.ReadAll(putResp.Body)
		if putResp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "resource_already_exists_exception") {
			c.ensured = true
			return nil
		}
		return fmt.Errorf("searchclient.EnsureIndex: status %d: %s", putResp.StatusCode, body)
	}

	c.ensured = true
	return nil
}

// Index writes a single chunk's document. Ingestion treats failures here
// as non-fatal: the vector store is the authoritative write.
func (c *Client) Index(ctx context.Context, chunk model.Chunk) error {
	if err := c.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("searchclient.Index: %w", err)
	}

	doc := map[string]interface{}{
		"document_id": chunk.DocumentID,
		"chunk_id":    chunk.ChunkID,
		"source":      chunk.Source,
		"text":        chunk.Text,
	}
	if chunk.Page != nil {
		doc["page"] = *chunk.Page
	}
	if len(chunk.Tags) > 0 {
		doc["tags"] = chunk.Tags
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("searchclient.Index: marshal: %w", err)
	}

	docID := model.VectorID(chunk.DocumentID, chunk.ChunkID)
	path := fmt.Sprintf("/%s/_doc/%s", c.index, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("searchclient.Index: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("searchclient.Index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("searchclient.Index: status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// SearchRequest narrows a BM25 query to a subset of documents and/or
// sources. Either filter may be left empty to mean "no restriction".
type SearchRequest struct {
	Query       string
	TopK        int
	DocumentIDs []string
	Sources     []string
}

// Search runs a BM25 match query over chunk text, returning hits ordered
// descending by score. TopK is clamped to [1, 50].
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]model.BM25Hit, error) {
	if err := c.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("searchclient.Search: %w", err)
	}

	topK := req.TopK
	if topK < 1 {
		topK = 1
	} else if topK > 50 {
		topK = 50
	}

	must := []map[string]interface{}{
		{"match": map[string]interface{}{"text": req.Query}},
	}
	var filter []map[string]interface{}
	if len(req.DocumentIDs) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"document_id": req.DocumentIDs}})
	}
	if len(req.Sources) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"source": req.Sources}})
	}

	query := map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("searchclient.Search: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.index+"/_search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("searchclient.Search: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuth(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searchclient.Search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("searchclient.Search: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("searchclient.Search: decode: %w", err)
	}

	return parsed.toHits(), nil
}

// Ping checks that the OpenSearch cluster is reachable, satisfying
// handler.Pinger for the search node's health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/_cluster/health", nil)
	if err != nil {
		return fmt.Errorf("searchclient.Ping: %w", err)
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("searchclient.Ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("searchclient.Ping: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				DocumentID string   `json:"document_id"`
				ChunkID    int      `json:"chunk_id"`
				Source     string   `json:"source"`
				Page       *int     `json:"page"`
				Text       string   `json:"text"`
				Tags       []string `json:"tags"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// toHits converts raw OpenSearch hits into BM25Hit, already sorted
// descending by score because OpenSearch returns results in score order.
func (r searchResponse) toHits() []model.BM25Hit {
	out := make([]model.BM25Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, model.BM25Hit{
			DocumentID: h.Source.DocumentID,
			ChunkID:    h.Source.ChunkID,
			Source:     h.Source.Source,
			Page:       h.Source.Page,
			Text:       h.Source.Text,
			Tags:       h.Source.Tags,
			Score:      h.Score,
		})
	}
	return out
}
