package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/contentgen/internal/api/response"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /health and
// /v1/health. It reports 503 when the job store or the cache is unreachable.
func NewHealthHandler(st, ca Pinger, provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": "ok",
			"cache": "ok",
		}

		if err := st.Ping(r.Context()); err != nil {
			checks["store"] = "degraded"
		}
		if err := ca.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["store"] != "ok" || checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "healthy",
			"provider": provider,
			"services": checks,
		})
	}
}

// NewServiceHealthHandler returns a liveness probe for one API area,
// e.g. "text-generation" or "job-management".
func NewServiceHealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, map[string]string{
			"status":  "healthy",
			"service": service,
		})
	}
}
