package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsehq/pulse/internal/models"
	"github.com/pulsehq/pulse/internal/notify"
	"github.com/pulsehq/pulse/internal/scrape"
)

// digester is the optional post-sync recap hook.
type digester interface {
	SendDigest(ctx context.Context, report *models.SyncReport) error
}

// SyncScheduler runs full watchlist syncs on a fixed interval and on
// demand from the management API. At most one sync runs at a time;
// overlapping triggers are rejected rather than queued.
type SyncScheduler struct {
	orchestrator *scrape.Orchestrator
	notifier     notify.Notifier
	digest       digester
	logger       *slog.Logger
	interval     time.Duration
	stopChan     chan struct{}

	mu      sync.Mutex
	running bool
}

// NewSyncScheduler creates a sync scheduler. digest may be nil.
func NewSyncScheduler(orchestrator *scrape.Orchestrator, notifier notify.Notifier, digest digester, interval time.Duration, logger *slog.Logger) *SyncScheduler {
	return &SyncScheduler{
		orchestrator: orchestrator,
		notifier:     notifier,
		digest:       digest,
		logger:       logger,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the scheduler loop. The first sync runs after one full
// interval, not at boot, so restarts don't hammer the upstream API.
func (s *SyncScheduler) Start(ctx context.Context) {
	s.logger.Info("starting sync scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("sync scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sync scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler loop.
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

// TriggerAsync starts a sync in the background. Returns false when a
// sync is already in flight.
func (s *SyncScheduler) TriggerAsync(ctx context.Context) bool {
	if !s.tryAcquire() {
		return false
	}
	go func() {
		defer s.release()
		s.execute(ctx)
	}()
	return true
}

// Running reports whether a sync is currently in flight.
func (s *SyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	if !s.tryAcquire() {
		s.logger.Warn("previous sync still running, skipping scheduled cycle")
		return
	}
	defer s.release()
	s.execute(ctx)
}

func (s *SyncScheduler) execute(ctx context.Context) {
	report, err := s.orchestrator.SyncAll(ctx)
	if err != nil {
		s.logger.Error("sync cycle failed", "error", err)
		if notifyErr := s.notifier.Send(ctx, notify.ErrorMessage("Sync Failure", err.Error())); notifyErr != nil {
			s.logger.Error("failed to send sync failure alert", "error", notifyErr)
		}
		return
	}

	if s.digest != nil && report.Total() > 0 {
		if err := s.digest.SendDigest(ctx, report); err != nil {
			s.logger.Warn("sync digest delivery failed", "run_id", report.RunID, "error", err)
		}
	}
}

func (s *SyncScheduler) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncScheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
