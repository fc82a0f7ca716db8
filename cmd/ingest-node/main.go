// Command ingest-node runs the ingestion HTTP service: it parses an
// uploaded document, chunks it, embeds the chunks, and writes them to the
// vector store (authoritative) and the lexical index (best-effort).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/connexus-ai/hybridrag/internal/cache"
	"github.com/connexus-ai/hybridrag/internal/chunking"
	"github.com/connexus-ai/hybridrag/internal/config"
	"github.com/connexus-ai/hybridrag/internal/handler"
	"github.com/connexus-ai/hybridrag/internal/ingest"
	"github.com/connexus-ai/hybridrag/internal/llmclient"
	"github.com/connexus-ai/hybridrag/internal/middleware"
	"github.com/connexus-ai/hybridrag/internal/parsing"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
	"github.com/connexus-ai/hybridrag/internal/vectorstore"
)

func newRouter(cfg *config.Config, pipeline *ingest.Pipeline, pinger handler.Pinger, metrics *middleware.Metrics, reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Monitoring(metrics))

	r.Get("/health", handler.Health("ingest", pinger, map[string]interface{}{
		"chroma_collection": cfg.ChromaCollection,
	}))
	r.Handle("/metrics", middleware.MetricsHandler(reg))
	r.Post("/ingest", handler.Ingest(pipeline, parsing.PlainTextParser{}))

	return r
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ingest-node: %w", err)
	}

	embedder := llmclient.NewEmbedClient(cfg.BaseURL, cfg.OpenAIAPIKey, cfg.ModelEmbed)

	var embed ingest.Embedder = embedder
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		embedCache := cache.NewEmbeddingCache(redisClient, cache.DefaultEmbeddingTTL)
		embed = cache.NewCachedEmbedder(embedder, embedCache, cfg.ModelEmbed)
	}

	vector := vectorstore.New(cfg.ChromaBaseURL, cfg.ChromaCollection)
	lexical := searchclient.NewRemote(cfg.SearchServiceURL)
	chunker := chunking.New(chunking.DefaultChunkSize, chunking.DefaultOverlap)
	logger := slog.Default()

	pipeline := ingest.New(chunker, embed, vector, lexical, logger)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)
	router := newRouter(cfg, pipeline, vector, metrics, reg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ingest-node starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("ingest-node received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("ingest-node: server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("ingest-node: graceful shutdown failed: %w", err)
	}
	slog.Info("ingest-node stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
