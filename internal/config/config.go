// Package config loads the hybrid retrieval core's configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment
// variables. It is immutable after Load() returns.
type Config struct {
	Port int

	BaseURL      string
	OpenAIAPIKey string
	ModelEmbed   string
	ModelChat    string

	ChromaBaseURL    string
	ChromaCollection string

	SearchServiceURL string

	OpenSearchHost     string
	OpenSearchPort     int
	OpenSearchScheme   string
	OpenSearchUser     string
	OpenSearchPassword string
	OpenSearchIndex    string

	RedisAddr string

	Hybrid HybridConfig
}

// HybridConfig holds the tuning knobs for the hybrid retrieval engine.
type HybridConfig struct {
	BM25Chunks         int
	CenterK            int
	NeighborWindow     int
	MaxContextChunks   int
	FusionAlpha        float64
	CenterRelThreshold float64
	DistancePenalty    float64
	ContextCharBudget  int
}

// DefaultHybridConfig returns the defaults from §4.5 of the retrieval spec.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		BM25Chunks:         50,
		CenterK:            3,
		NeighborWindow:     2,
		MaxContextChunks:   30,
		FusionAlpha:        0.6,
		CenterRelThreshold: 0.85,
		DistancePenalty:    0.02,
		ContextCharBudget:  12000,
	}
}

// Load reads configuration from environment variables. Optional variables
// use the sensible defaults of §4.5/§6.
func Load() (*Config, error) {
	cfg := &Config{
		Port: envInt("PORT", 8080),

		BaseURL:      envStr("BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ModelEmbed:   envStr("MODEL_EMBED", "text-embedding-3-small"),
		ModelChat:    envStr("MODEL_CHAT", "gpt-4o-mini"),

		ChromaBaseURL:    envStr("CHROMA_BASE_URL", "http://localhost:8000"),
		ChromaCollection: envStr("CHROMA_COLLECTION", "documents"),

		SearchServiceURL: envStr("SEARCH_SERVICE_URL", "http://localhost:8081"),

		OpenSearchHost:     envStr("OPENSEARCH_HOST", "localhost"),
		OpenSearchPort:     envInt("OPENSEARCH_PORT", 9200),
		OpenSearchScheme:   envStr("OPENSEARCH_SCHEME", "http"),
		OpenSearchUser:     envStr("OPENSEARCH_USER", ""),
		OpenSearchPassword: envStr("OPENSEARCH_PASSWORD", ""),
		OpenSearchIndex:    envStr("OPENSEARCH_INDEX", "docs_bm25"),

		RedisAddr: envStr("REDIS_ADDR", ""),

		Hybrid: loadHybridConfig(),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("config.Load: OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func loadHybridConfig() HybridConfig {
	d := DefaultHybridConfig()
	return HybridConfig{
		BM25Chunks:         envInt("HYBRID_BM25_CHUNKS", d.BM25Chunks),
		CenterK:            envInt("HYBRID_CENTER_K", d.CenterK),
		NeighborWindow:     envInt("HYBRID_NEIGHBOR_WINDOW", d.NeighborWindow),
		MaxContextChunks:   envInt("HYBRID_MAX_CONTEXT_CHUNKS", d.MaxContextChunks),
		FusionAlpha:        envFloat("HYBRID_FUSION_ALPHA", d.FusionAlpha),
		CenterRelThreshold: envFloat("HYBRID_CENTER_REL_THRESHOLD", d.CenterRelThreshold),
		DistancePenalty:    envFloat("HYBRID_DISTANCE_PENALTY", d.DistancePenalty),
		ContextCharBudget:  envInt("HYBRID_CONTEXT_CHAR_BUDGET", d.ContextCharBudget),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
