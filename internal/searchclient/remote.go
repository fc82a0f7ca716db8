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

// RemoteClient calls the search node's own HTTP API rather than talking to
// OpenSearch directly. The query and ingest nodes go through the search
// node's facade with it, never reaching past it into the lexical store.
type RemoteClient struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a RemoteClient rooted at the search node's base URL
// (e.g. SEARCH_SERVICE_URL).
func NewRemote(baseURL string) *RemoteClient {
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type remoteSearchRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

type remoteSearchResponse struct {
	Hits  []model.BM25Hit `json:"hits"`
	Total int             `json:"total"`
}

// Search forwards a query to the search node's POST /search endpoint.
func (c *RemoteClient) Search(ctx context.Context, req SearchRequest) ([]model.BM25Hit, error) {
	body, err := json.Marshal(remoteSearchRequest{
		Query:       req.Query,
		TopK:        req.TopK,
		DocumentIDs: req.DocumentIDs,
		Sources:     req.Sources,
	})
	if err != nil {
		return nil, fmt.Errorf("searchclient.RemoteClient.Search: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("searchclient.RemoteClient.Search: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searchclient.RemoteClient.Search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("searchclient.RemoteClient.Search: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed remoteSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("searchclient.RemoteClient.Search: decode: %w", err)
	}
	return parsed.Hits, nil
}

// Index forwards a chunk to the search node's POST /index endpoint. The
// ingest node uses RemoteClient as its LexicalWriter through this method;
// the query node never calls it.
func (c *RemoteClient) Index(ctx context.Context, chunk model.Chunk) error {
	body, err := json.Marshal(struct {
		DocumentID string   `json:"document_id"`
		ChunkID    int      `json:"chunk_id"`
		Source     string   `json:"source"`
		Page       *int     `json:"page,omitempty"`
		Text       string   `json:"text"`
		Tags       []string `json:"tags,omitempty"`
	}{chunk.DocumentID, chunk.ChunkID, chunk.Source, chunk.Page, chunk.Text, chunk.Tags})
	if err != nil {
		return fmt.Errorf("searchclient.RemoteClient.Index: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/index", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("searchclient.RemoteClient.Index: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("searchclient.RemoteClient.Index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("searchclient.RemoteClient.Index: status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
