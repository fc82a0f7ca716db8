package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// DefaultQueryTTL is short: the corpus can change between ingests, and a
// stale cached answer is worse than a redundant retrieval pass.
const DefaultQueryTTL = 5 * time.Minute

// QueryCache caches full answer records keyed by the exact request shape
// that produced them: question, optional document scope, top_k, and model.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueryCache creates a QueryCache over an existing Redis client.
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryCache{client: client, ttl: ttl}
}

// Key identifies a cacheable query; all fields participate in the hash.
type Key struct {
	Question   string
	DocumentID string
	TopK       int
	ModelName  string
}

// Get returns the cached answer for key, if present.
func (c *QueryCache) Get(ctx context.Context, key Key) (model.AnswerRecord, bool, error) {
	data, err := c.client.Get(ctx, queryKey(key)).Bytes()
	if err == redis.Nil {
		return model.AnswerRecord{}, false, nil
	}
	if err != nil {
		return model.AnswerRecord{}, false, fmt.Errorf("cache.QueryCache.Get: %w", err)
	}

	var rec model.AnswerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.AnswerRecord{}, false, fmt.Errorf("cache.QueryCache.Get: decode: %w", err)
	}
	return rec, true, nil
}

// Set stores rec under key for the cache's configured TTL.
func (c *QueryCache) Set(ctx context.Context, key Key, rec model.AnswerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache.QueryCache.Set: encode: %w", err)
	}
	if err := c.client.Set(ctx, queryKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache.QueryCache.Set: %w", err)
	}
	return nil
}

func queryKey(key Key) string {
	raw := fmt.Sprintf("%s\x00%s\x00%d\x00%s", key.Question, key.DocumentID, key.TopK, key.ModelName)
	sum := sha256.Sum256([]byte(raw))
	return "query:" + hex.EncodeToString(sum[:])
}
