package cache

import (
	"context"
	"fmt"
)

// Embedder is the subset of the embedding client CachedEmbedder wraps.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CachedEmbedder decorates an Embedder with an EmbeddingCache lookup,
// skipping the upstream call entirely for texts already cached.
type CachedEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
	model string
}

// NewCachedEmbedder wraps inner with cache, keying entries by model.
func NewCachedEmbedder(inner Embedder, cache *EmbeddingCache, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, model: model}
}

// Embed returns one vector per text, in order, serving cached entries
// directly and embedding only the texts that missed the cache.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		vec, found, err := e.cache.Get(ctx, e.model, text)
		if err != nil {
			return nil, fmt.Errorf("cache.CachedEmbedder.Embed: %w", err)
		}
		if found {
			result[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return result, nil
	}

	vectors, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("cache.CachedEmbedder.Embed: %w", err)
	}

	for j, idx := range missIdx {
		result[idx] = vectors[j]
		if err := e.cache.Set(ctx, e.model, missTexts[j], vectors[j]); err != nil {
			return nil, fmt.Errorf("cache.CachedEmbedder.Embed: %w", err)
		}
	}

	return result, nil
}

// Dimension delegates to the wrapped Embedder.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}
