package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/connexus-ai/hybridrag/internal/httpx"
)

// Pinger is the one external dependency a node checks on GET /health: the
// vector store for the ingest and query nodes, OpenSearch for the search
// node.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthPingTimeout = 3 * time.Second

// Health returns GET /health, reporting {"status":"ok", ...extra} plus a
// best-effort ping of pinger. pinger may be nil, in which case no
// dependency is checked and the node reports healthy on its own say-so.
func Health(service string, pinger Pinger, extra map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dependency := "connected"
		httpStatus := http.StatusOK

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				status = "degraded"
				dependency = "disconnected"
				httpStatus = http.StatusServiceUnavailable
			}
		}

		body := map[string]interface{}{
			"status":     status,
			"node":       service,
			"dependency": dependency,
		}
		for k, v := range extra {
			body[k] = v
		}
		httpx.JSON(w, httpStatus, body)
	}
}
