package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pulsehq/pulse/internal/api"
	"github.com/pulsehq/pulse/internal/auth"
	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/database"
	"github.com/pulsehq/pulse/internal/digest"
	"github.com/pulsehq/pulse/internal/logging"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/notify"
	"github.com/pulsehq/pulse/internal/scheduler"
	"github.com/pulsehq/pulse/internal/scrape"
	"github.com/pulsehq/pulse/internal/scraptik"
	"github.com/pulsehq/pulse/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting pulse")

	if missing := cfg.Validate(); len(missing) > 0 {
		logger.Error("missing required configuration", "variables", strings.Join(missing, ", "))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("connecting to database")
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	store := database.NewPostgresStore(db)
	notifier := notify.NewTelegramNotifier(cfg.Telegram, logger)
	tiktok := scraptik.NewClient(cfg.ScrapTik, logger, scraptik.WithCollector(collector))

	factory := scrape.NewFactory(scrape.Deps{
		Store:     store,
		TikTok:    tiktok,
		Notifier:  notifier,
		Logger:    logger,
		Collector: collector,
		Config:    cfg.Scraper,
	})

	orchestrator := scrape.NewOrchestrator(store, factory, logger, collector, cfg.Scraper)

	var syncScheduler *scheduler.SyncScheduler
	if cfg.Digest.OpenAIKey != "" {
		logger.Info("sync digest enabled", "model", cfg.Digest.Model)
		digester := digest.NewGenerator(cfg.Digest, notifier, logger)
		syncScheduler = scheduler.NewSyncScheduler(orchestrator, notifier, digester, cfg.Scraper.SyncInterval, logger)
	} else {
		syncScheduler = scheduler.NewSyncScheduler(orchestrator, notifier, nil, cfg.Scraper.SyncInterval, logger)
	}
	go syncScheduler.Start(ctx)
	defer syncScheduler.Stop()

	authConfig, err := auth.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load auth config", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, db, store, factory, syncScheduler, collector, authConfig, logger)

	srv := server.New(cfg.Server, logger, mux)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx := context.Background()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down cleanly", "error", err)
		os.Exit(1)
	}

	logger.Info("pulse stopped")
}
