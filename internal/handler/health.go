package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tabnest/internal/httputil"
)

// HealthHandler reports process and storage health
type HealthHandler struct {
	driver string
	ping   func(ctx context.Context) error
	logger *slog.Logger
}

// NewHealthHandler creates a health handler that pings storage on each check
func NewHealthHandler(driver string, ping func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{driver: driver, ping: ping, logger: logger}
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Warn("health check failed", "driver", h.driver, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"driver": h.driver,
		"time":   time.Now().UTC(),
	})
}
