package scrape

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/models"
)

// alertCounter is implemented by scrapers that track notifications sent
// during a sync cycle. The orchestrator drains the count after each
// platform finishes.
type alertCounter interface {
	TakeAlertCount() int
}

// Orchestrator drives full watchlist syncs across all platforms.
type Orchestrator struct {
	store     Store
	factory   *Factory
	logger    *slog.Logger
	collector *metrics.Collector
	cfg       config.ScraperConfig
}

// NewOrchestrator wires a sync orchestrator over the scraper factory.
func NewOrchestrator(store Store, factory *Factory, logger *slog.Logger, collector *metrics.Collector, cfg config.ScraperConfig) *Orchestrator {
	return &Orchestrator{
		store:     store,
		factory:   factory,
		logger:    logger,
		collector: collector,
		cfg:       cfg,
	}
}

// SyncAll refreshes every active account, grouped by platform. A failing
// account never stops the run: its error is logged and counted, and the
// loop moves on. The report always comes back, even on a partial run.
func (o *Orchestrator) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	report := &models.SyncReport{
		RunID:      uuid.New().String(),
		StartedAt:  time.Now().UTC(),
		ByPlatform: make(map[models.Platform]models.PlatformResult),
	}

	accounts, err := o.store.ListActiveAccounts(ctx)
	if err != nil {
		return report, err
	}

	o.logger.Info("sync cycle starting", "run_id", report.RunID, "accounts", len(accounts))

	grouped := make(map[models.Platform][]*models.Account)
	for _, account := range accounts {
		grouped[account.Platform] = append(grouped[account.Platform], account)
	}

	platforms := make([]models.Platform, 0, len(grouped))
	for p := range grouped {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	for _, platform := range platforms {
		group := grouped[platform]

		scraper, err := o.factory.Scraper(platform)
		if err != nil {
			o.logger.Error("no scraper for platform, skipping its accounts",
				"platform", platform, "accounts", len(group), "error", err)
			result := report.ByPlatform[platform]
			result.Failed += len(group)
			report.ByPlatform[platform] = result
			report.Failed += len(group)
			continue
		}

		for i, account := range group {
			result := report.ByPlatform[platform]

			if _, err := scraper.UpdateAccountByID(ctx, account.ID); err != nil {
				o.logger.Error("account sync failed",
					"platform", platform, "handle", account.Handle, "error", err)
				result.Failed++
				report.Failed++
				o.collector.ObserveAccountSynced(string(platform), "failure")
			} else {
				result.Success++
				report.Success++
				o.collector.ObserveAccountSynced(string(platform), "success")
			}
			report.ByPlatform[platform] = result

			if err := ctx.Err(); err != nil {
				o.finish(report)
				return report, err
			}

			// Pause between accounts, not after the last one.
			if i < len(group)-1 && o.cfg.AccountDelay > 0 {
				if err := sleepCtx(ctx, o.cfg.AccountDelay); err != nil {
					o.finish(report)
					return report, err
				}
			}
		}

		if counter, ok := scraper.(alertCounter); ok {
			report.ViralAlerts += counter.TakeAlertCount()
		}
	}

	o.finish(report)
	return report, nil
}

func (o *Orchestrator) finish(report *models.SyncReport) {
	report.Duration = time.Since(report.StartedAt)
	o.collector.ObserveSyncCycle(report.Duration)

	o.logger.Info("sync cycle finished",
		"run_id", report.RunID,
		"success", report.Success,
		"failed", report.Failed,
		"viral_alerts", report.ViralAlerts,
		"duration", report.Duration.Round(time.Millisecond))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
