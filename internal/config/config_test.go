package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "BASE_URL", "OPENAI_API_KEY", "MODEL_EMBED", "MODEL_CHAT",
		"CHROMA_BASE_URL", "CHROMA_COLLECTION", "SEARCH_SERVICE_URL",
		"OPENSEARCH_HOST", "OPENSEARCH_PORT", "OPENSEARCH_SCHEME",
		"OPENSEARCH_USER", "OPENSEARCH_PASSWORD", "OPENSEARCH_INDEX",
		"REDIS_ADDR",
		"HYBRID_BM25_CHUNKS", "HYBRID_CENTER_K", "HYBRID_NEIGHBOR_WINDOW",
		"HYBRID_MAX_CONTEXT_CHUNKS", "HYBRID_FUSION_ALPHA",
		"HYBRID_CENTER_REL_THRESHOLD", "HYBRID_DISTANCE_PENALTY",
		"HYBRID_CONTEXT_CHAR_BUDGET",
	} {
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.ChromaCollection != "documents" {
		t.Errorf("ChromaCollection = %q, want %q", cfg.ChromaCollection, "documents")
	}
	if cfg.OpenSearchIndex != "docs_bm25" {
		t.Errorf("OpenSearchIndex = %q, want %q", cfg.OpenSearchIndex, "docs_bm25")
	}
	if cfg.OpenSearchPort != 9200 {
		t.Errorf("OpenSearchPort = %d, want 9200", cfg.OpenSearchPort)
	}

	h := cfg.Hybrid
	if h.BM25Chunks != 50 {
		t.Errorf("BM25Chunks = %d, want 50", h.BM25Chunks)
	}
	if h.CenterK != 3 {
		t.Errorf("CenterK = %d, want 3", h.CenterK)
	}
	if h.NeighborWindow != 2 {
		t.Errorf("NeighborWindow = %d, want 2", h.NeighborWindow)
	}
	if h.MaxContextChunks != 30 {
		t.Errorf("MaxContextChunks = %d, want 30", h.MaxContextChunks)
	}
	if h.FusionAlpha != 0.6 {
		t.Errorf("FusionAlpha = %f, want 0.6", h.FusionAlpha)
	}
	if h.CenterRelThreshold != 0.85 {
		t.Errorf("CenterRelThreshold = %f, want 0.85", h.CenterRelThreshold)
	}
	if h.DistancePenalty != 0.02 {
		t.Errorf("DistancePenalty = %f, want 0.02", h.DistancePenalty)
	}
	if h.ContextCharBudget != 12000 {
		t.Errorf("ContextCharBudget = %d, want 12000", h.ContextCharBudget)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_CHAT", "gpt-5")
	t.Setenv("HYBRID_CENTER_K", "5")
	t.Setenv("HYBRID_FUSION_ALPHA", "0.4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.ModelChat != "gpt-5" {
		t.Errorf("ModelChat = %q, want %q", cfg.ModelChat, "gpt-5")
	}
	if cfg.Hybrid.CenterK != 5 {
		t.Errorf("CenterK = %d, want 5", cfg.Hybrid.CenterK)
	}
	if cfg.Hybrid.FusionAlpha != 0.4 {
		t.Errorf("FusionAlpha = %f, want 0.4", cfg.Hybrid.FusionAlpha)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080 (fallback)", cfg.Port)
	}
}

func TestLoad_InvalidFloatFallsBack(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("HYBRID_FUSION_ALPHA", "bad")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Hybrid.FusionAlpha != 0.6 {
		t.Errorf("FusionAlpha = %f, want 0.6 (fallback)", cfg.Hybrid.FusionAlpha)
	}
}
