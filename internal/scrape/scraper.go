package scrape

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/models"
	"github.com/pulsehq/pulse/internal/notify"
	"github.com/pulsehq/pulse/internal/scraptik"
)

// Scraper is the per-platform add/update/remove lifecycle. New platforms
// register a constructor with the factory and implement this interface;
// the orchestrator never changes.
type Scraper interface {
	// Platform returns the identifier this scraper handles.
	Platform() models.Platform

	// AddAccount puts a handle on the watchlist, fetching its profile and
	// recent content. Re-adding an inactive account reactivates it and
	// falls through to an update.
	AddAccount(ctx context.Context, handle string, sendNotification bool) (*models.Account, error)

	// UpdateAccount refreshes an account located by handle.
	UpdateAccount(ctx context.Context, handle string) (*models.Account, error)

	// UpdateAccountByID refreshes an account located by database id,
	// preferring the cached platform-native id over re-resolving the
	// handle. Used by bulk sync.
	UpdateAccountByID(ctx context.Context, accountID int64) (*models.Account, error)

	// RemoveAccount soft-deletes an account. Idempotent: removing an
	// absent or already-inactive account returns false, not an error.
	RemoveAccount(ctx context.Context, handle string) (bool, error)
}

// TikTokAPI is the slice of the ScrapTik client the TikTok scraper
// consumes; tests substitute a fake.
type TikTokAPI interface {
	FetchAccount(ctx context.Context, handle string) (*scraptik.AccountData, error)
	FetchContent(ctx context.Context, platformID string, maxItems, daysBack int) ([]scraptik.ContentData, error)
}

// Deps bundles everything a scraper implementation needs.
type Deps struct {
	Store     Store
	TikTok    TikTokAPI
	Notifier  notify.Notifier
	Logger    *slog.Logger
	Collector *metrics.Collector
	Config    config.ScraperConfig
}

// NormalizeHandle strips a leading @, trims whitespace and lowercases,
// so "@SomeUser " and "someuser" address the same account.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@")))
}

// IsViral applies the threshold rule: the primary metric must strictly
// exceed the account average times the multiplier.
func IsViral(primaryMetric int64, average, multiplier float64) bool {
	return float64(primaryMetric) > average*multiplier
}
