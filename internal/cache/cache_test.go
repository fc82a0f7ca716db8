package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/connexus-ai/hybridrag/internal/model"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestEmbeddingCache_MissThenHit(t *testing.T) {
	client := newTestRedis(t)
	c := NewEmbeddingCache(client, time.Minute)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "model-a", "hello")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found {
		t.Fatal("expected cache miss before Set")
	}

	want := []float32{0.1, 0.2, 0.3}
	if err := c.Set(ctx, "model-a", "hello", want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, found, err := c.Get(ctx, "model-a", "hello")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit after Set")
	}
	if len(got) != 3 || got[0] != want[0] {
		t.Errorf("got = %v, want %v", got, want)
	}
}

func TestEmbeddingCache_DifferentModelsDoNotCollide(t *testing.T) {
	client := newTestRedis(t)
	c := NewEmbeddingCache(client, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "model-a", "hello", []float32{1}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	_, found, err := c.Get(ctx, "model-b", "hello")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found {
		t.Error("a cached vector for model-a must not be served for model-b")
	}
}

func TestQueryCache_MissThenHit(t *testing.T) {
	client := newTestRedis(t)
	c := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	key := Key{Question: "what is it?", DocumentID: "d", TopK: 5, ModelName: "gpt-4o-mini"}

	_, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found {
		t.Fatal("expected cache miss before Set")
	}

	want := model.AnswerRecord{Answer: "it is this", ContextUsed: 42, ModelUsed: "gpt-4o-mini"}
	if err := c.Set(ctx, key, want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, found, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !found || got.Answer != want.Answer {
		t.Errorf("got = %+v, want %+v", got, want)
	}
}

func TestQueryCache_DistinctTopKDoNotCollide(t *testing.T) {
	client := newTestRedis(t)
	c := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	keyA := Key{Question: "q", TopK: 5}
	keyB := Key{Question: "q", TopK: 10}

	if err := c.Set(ctx, keyA, model.AnswerRecord{Answer: "five"}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	_, found, err := c.Get(ctx, keyB)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found {
		t.Error("a different top_k must be a distinct cache key")
	}
}
