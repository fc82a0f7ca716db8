// Command search-node runs the lexical search HTTP service: a thin, typed
// facade over the BM25 engine. Other nodes reach OpenSearch only through
// this service's /search and /index endpoints.
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

	"github.com/connexus-ai/hybridrag/internal/config"
	"github.com/connexus-ai/hybridrag/internal/handler"
	"github.com/connexus-ai/hybridrag/internal/middleware"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
)

func newRouter(cfg *config.Config, client *searchclient.Client, metrics *middleware.Metrics, reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Monitoring(metrics))

	r.Get("/health", handler.Health("search", client, map[string]interface{}{
		"index": cfg.OpenSearchIndex,
	}))
	r.Handle("/metrics", middleware.MetricsHandler(reg))
	r.Post("/search", handler.Search(client))
	r.Post("/index", handler.Index(client))

	return r
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("search-node: %w", err)
	}

	client := searchclient.New(
		fmt.Sprintf("%s://%s:%d", cfg.OpenSearchScheme, cfg.OpenSearchHost, cfg.OpenSearchPort),
		cfg.OpenSearchIndex, cfg.OpenSearchUser, cfg.OpenSearchPassword,
	)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)
	router := newRouter(cfg, client, metrics, reg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("search-node starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("search-node received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("search-node: server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("search-node: graceful shutdown failed: %w", err)
	}
	slog.Info("search-node stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
