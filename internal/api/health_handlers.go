package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/pulsehq/pulse/internal/database"
	"log/slog"
)

// HealthHandler reports process and database health.
type HealthHandler struct {
	db        *sql.DB
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates the health endpoint handler.
func NewHealthHandler(db *sql.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	code := http.StatusOK
	if err := database.HealthCheck(r.Context(), h.db); err != nil {
		h.logger.Error("database health check failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, code, map[string]any{
		"status":         status,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"database":       database.Stats(h.db),
	})
}
