package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/jobs"
)

// HealthChecker is a dependency reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for the read-only HTTP handlers.
type Handler struct {
	nodes  jobs.NodeSource
	checks map[string]HealthChecker
}

// NewHandler creates a new handler. checks are keyed by dependency name.
func NewHandler(nodes jobs.NodeSource, checks map[string]HealthChecker) *Handler {
	return &Handler{nodes: nodes, checks: checks}
}

// HealthCheck reports service health and the state of each dependency.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "scoretree",
		"dependencies": deps,
	})
}

// GetNodes returns the node registry the next harvest would use.
func (h *Handler) GetNodes(w http.ResponseWriter, r *http.Request) {
	entries := []hupu.NodeEntry{}
	if h.nodes != nil {
		entries = h.nodes(r.Context())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(entries),
		"nodes": entries,
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
