package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type HealthHandler struct {
	name    string
	version string
	ping    func(ctx context.Context) error
}

// NewHealthHandler reports liveness for name/version. ping checks the
// database and may be nil.
func NewHealthHandler(name, version string, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		name:    name,
		version: version,
		ping:    ping,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unavailable",
				"database": "unreachable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

// Index describes the API.
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    h.name,
		"version": h.version,
		"endpoints": map[string]string{
			"goals":   "/api/goals",
			"stats":   "/api/goals/stats",
			"export":  "/api/goals/export",
			"health":  "/healthz",
			"metrics": "/metrics",
		},
	})
}

// NotFound answers every path no route claims.
func (h *HealthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]errorBody{
		"error": {Type: "not_found", Message: "route not found"},
	})
}
