package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/taskman-api/internal/api/shared"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthTimeout bounds the store ping of a health check.
const healthTimeout = 2 * time.Second

// HealthHandler serves GET /health.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health answers 200 when the store responds to a ping and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err,
			shared.WithElevatedLogLevel())
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
