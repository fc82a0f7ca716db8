// Package llmclient wraps an OpenAI-compatible embeddings/chat endpoint,
// addressed entirely through BASE_URL so any compatible provider can sit
// behind it.
package llmclient

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EmbedClient calls an OpenAI-compatible embeddings endpoint.
type EmbedClient struct {
	client *openai.Client
	model  string
	dim    int
}

// NewEmbedClient creates an EmbedClient. baseURL and apiKey address the
// embeddings endpoint; model is the embedding model name.
func NewEmbedClient(baseURL, apiKey, model string) *EmbedClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &EmbedClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Embed returns one embedding vector per input string, in the same order.
// All vectors returned by a single call must share a dimension; that
// dimension is recorded on first use and checked against on every later
// call. No retry is performed here — retries, if wanted, belong to the
// caller.
func (c *EmbedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("llmclient.Embed: no texts provided")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient.Embed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("llmclient.Embed: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("llmclient.Embed: response index %d out of range", d.Index)
		}
		if c.dim == 0 {
			c.dim = len(d.Embedding)
		} else if len(d.Embedding) != c.dim {
			return nil, fmt.Errorf("llmclient.Embed: vector %d has %d dimensions, want %d", d.Index, len(d.Embedding), c.dim)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// Dimension returns the embedding dimension discovered on first use, or 0
// if Embed has not yet been called successfully.
func (c *EmbedClient) Dimension() int {
	return c.dim
}
