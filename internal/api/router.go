package api

import (
	"database/sql"
	"net/http"

	"github.com/pulsehq/pulse/internal/auth"
	"github.com/pulsehq/pulse/internal/database"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/scheduler"
	"github.com/pulsehq/pulse/internal/scrape"
	"log/slog"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, db *sql.DB, store *database.PostgresStore, factory *scrape.Factory, sched *scheduler.SyncScheduler, collector *metrics.Collector, authConfig auth.Config, logger *slog.Logger) {
	authHandler := NewAuthHandler(authConfig, logger)
	accountHandler := NewAccountHandler(store, factory, logger)
	syncHandler := NewSyncHandler(sched, store, logger)
	healthHandler := NewHealthHandler(db, logger)

	authMiddleware := auth.Middleware(authConfig)
	protect := func(fn http.HandlerFunc) http.Handler {
		return authMiddleware(fn)
	}

	// Public routes
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/health", healthHandler.Health)
	mux.Handle("/metrics", collector.Handler())

	// Watchlist management (requires auth)
	mux.Handle("/api/accounts", protect(accountHandler.HandleAccounts))
	mux.Handle("/api/accounts/", protect(accountHandler.HandleAccountByHandle))

	// Sync control and alert history (requires auth)
	mux.Handle("/api/sync", protect(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.TriggerSync(w, r)
			return
		}
		syncHandler.SyncStatus(w, r)
	}))
	mux.Handle("/api/alerts", protect(syncHandler.ListAlerts))
}
