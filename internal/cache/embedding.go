// Package cache provides Redis-backed caches that sit in front of the
// embedding client and the query pipeline, keyed so that repeated inputs
// skip redundant upstream calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultEmbeddingTTL is how long a cached embedding is trusted. For a
// fixed model embedding(text) never goes stale, so the TTL only bounds
// staleness if the embedding model is swapped without a cache flush.
const DefaultEmbeddingTTL = 24 * time.Hour

// EmbeddingCache caches embedding vectors keyed by a hash of their input
// text, so identical chunks or repeated queries skip the embed call.
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEmbeddingCache creates an EmbeddingCache over an existing Redis client.
func NewEmbeddingCache(client *redis.Client, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	return &EmbeddingCache{client: client, ttl: ttl}
}

// Get returns the cached vector for text, if present.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, embeddingKey(model, text)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache.EmbeddingCache.Get: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, fmt.Errorf("cache.EmbeddingCache.Get: decode: %w", err)
	}
	return vec, true, nil
}

// Set stores vector for text under the cache's configured TTL.
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("cache.EmbeddingCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, embeddingKey(model, text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.EmbeddingCache.Set: %w", err)
	}
	return nil
}

// embeddingKey hashes the model name and text together so a model change
// never serves a stale vector under the same key.
func embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "::" + text))
	return "embed:" + hex.EncodeToString(sum[:])
}
