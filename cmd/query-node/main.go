// Command query-node runs the question-answering HTTP service: it drives
// hybrid retrieval, generates a grounded answer, and returns it with its
// supporting sources. Lexical search goes through the search node's HTTP
// facade rather than OpenSearch directly; the vector store is addressed
// directly since this core owns no dedicated vector-store facade service.
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

	"github.com/connexus-ai/hybridrag/internal/answer"
	"github.com/connexus-ai/hybridrag/internal/cache"
	"github.com/connexus-ai/hybridrag/internal/config"
	"github.com/connexus-ai/hybridrag/internal/handler"
	"github.com/connexus-ai/hybridrag/internal/llmclient"
	"github.com/connexus-ai/hybridrag/internal/middleware"
	"github.com/connexus-ai/hybridrag/internal/query"
	"github.com/connexus-ai/hybridrag/internal/retrieval"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
	"github.com/connexus-ai/hybridrag/internal/vectorstore"
)

func newRouter(cfg *config.Config, svc *query.Service, pinger handler.Pinger, metrics *middleware.Metrics, reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Monitoring(metrics))

	r.Get("/health", handler.Health("query", pinger, map[string]interface{}{
		"model_chat": cfg.ModelChat,
	}))
	r.Handle("/metrics", middleware.MetricsHandler(reg))
	r.Post("/query", handler.Query(svc))

	return r
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("query-node: %w", err)
	}

	embedder := llmclient.NewEmbedClient(cfg.BaseURL, cfg.OpenAIAPIKey, cfg.ModelEmbed)
	chat := llmclient.NewChatClient(cfg.BaseURL, cfg.OpenAIAPIKey, cfg.ModelChat)

	var embed retrieval.Embedder = embedder
	var resultCache *cache.QueryCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		embedCache := cache.NewEmbeddingCache(redisClient, cache.DefaultEmbeddingTTL)
		embed = cache.NewCachedEmbedder(embedder, embedCache, cfg.ModelEmbed)
		resultCache = cache.NewQueryCache(redisClient, cache.DefaultQueryTTL)
	}

	vector := vectorstore.New(cfg.ChromaBaseURL, cfg.ChromaCollection)
	lexical := searchclient.NewRemote(cfg.SearchServiceURL)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	engine := retrieval.New(vector, lexical, embed, cfg.Hybrid).WithObserver(metrics.ObserveStage)
	generator := answer.New(chat, cfg.ModelChat)

	var svc *query.Service
	if resultCache != nil {
		svc = query.New(engine, generator, resultCache)
	} else {
		svc = query.New(engine, generator, nil)
	}

	router := newRouter(cfg, svc, vector, metrics, reg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("query-node starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("query-node received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("query-node: server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("query-node: graceful shutdown failed: %w", err)
	}
	slog.Info("query-node stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
