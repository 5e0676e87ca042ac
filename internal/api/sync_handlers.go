package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pulsehq/pulse/internal/database"
	"github.com/pulsehq/pulse/internal/scheduler"
	"log/slog"
)

// SyncHandler exposes manual sync control and alert history.
type SyncHandler struct {
	scheduler *scheduler.SyncScheduler
	store     *database.PostgresStore
	logger    *slog.Logger
}

// NewSyncHandler creates the sync control handler.
func NewSyncHandler(sched *scheduler.SyncScheduler, store *database.PostgresStore, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler: sched,
		store:     store,
		logger:    logger,
	}
}

// TriggerSync handles POST /api/sync. The sync runs in the background;
// the response only says whether it was accepted.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Detached from the request context: the sync outlives the HTTP call.
	if !h.scheduler.TriggerAsync(context.Background()) {
		http.Error(w, "A sync is already running", http.StatusConflict)
		return
	}

	h.logger.Info("manual sync triggered", "ip", r.RemoteAddr)
	writeJSON(w, h.logger, http.StatusAccepted, map[string]any{
		"status":  "started",
		"started": time.Now().UTC(),
	})
}

// SyncStatus handles GET /api/sync
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"running": h.scheduler.Running(),
	})
}

// ListAlerts handles GET /api/alerts?limit=N
func (h *SyncHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.store.RecentAlertRecords(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list alert records", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"alerts": records,
		"count":  len(records),
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
