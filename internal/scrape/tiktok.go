package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/models"
	"github.com/pulsehq/pulse/internal/notify"
	"github.com/pulsehq/pulse/internal/scraptik"
)

// TikTokScraper runs the full watchlist lifecycle for TikTok using the
// ScrapTik two-step flow: resolve the profile (which yields the secUid),
// then fetch posts by secUid. The secUid is cached on the account so
// bulk syncs skip the handle resolution cost where possible.
type TikTokScraper struct {
	store     Store
	api       TikTokAPI
	notifier  notify.Notifier
	logger    *slog.Logger
	collector *metrics.Collector
	cfg       config.ScraperConfig

	alertsSent atomic.Int64
}

// NewTikTokScraper builds the TikTok implementation from shared deps.
func NewTikTokScraper(deps Deps) Scraper {
	return &TikTokScraper{
		store:     deps.Store,
		api:       deps.TikTok,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		collector: deps.Collector,
		cfg:       deps.Config,
	}
}

func (s *TikTokScraper) Platform() models.Platform {
	return models.PlatformTikTok
}

// AddAccount fetches the profile and recent posts for a handle and
// persists the account, its first snapshot and all content rows in one
// transaction. The welcome notification is best-effort and never fails
// the add.
func (s *TikTokScraper) AddAccount(ctx context.Context, handle string, sendNotification bool) (*models.Account, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return nil, models.NewError(models.KindInvalidArgument, "scrape.AddAccount", "handle must not be empty")
	}

	s.logger.Info("adding account", "platform", s.Platform(), "handle", handle)

	existing, err := s.store.GetAccountByHandle(ctx, s.Platform(), handle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		if !existing.Active() {
			if _, err := s.store.SetAccountState(ctx, existing.ID, models.AccountStateActive); err != nil {
				return nil, fmt.Errorf("failed to reactivate account: %w", err)
			}
			s.logger.Info("account reactivated", "handle", handle)
		}
		s.logger.Warn("account already exists, updating instead", "handle", handle)
		return s.UpdateAccount(ctx, handle)
	}

	profile, err := s.api.FetchAccount(ctx, handle)
	if err != nil {
		return nil, err
	}

	items, err := s.api.FetchContent(ctx, profile.PlatformUserID, s.cfg.MaxContentPerFetch, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	// On add, virality is judged against the average computed from this
	// same fetch. Updates instead use the pre-update stored average; the
	// asymmetry is deliberate.
	avg := s.averageViews(items)
	now := time.Now().UTC()

	account := &models.Account{
		Platform:          s.Platform(),
		PlatformUserID:    profile.PlatformUserID,
		Handle:            profile.Handle,
		DisplayName:       profile.DisplayName,
		Bio:               profile.Bio,
		AvatarURL:         profile.AvatarURL,
		FollowerCount:     profile.FollowerCount,
		FollowingCount:    profile.FollowingCount,
		TotalLikes:        profile.TotalLikes,
		ContentCount:      profile.ContentCount,
		AverageEngagement: avg,
		State:             models.AccountStateActive,
		LastSyncedAt:      &now,
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		snapshot := &models.AccountSnapshot{
			AccountID:      account.ID,
			FollowerCount:  account.FollowerCount,
			FollowingCount: account.FollowingCount,
			TotalLikes:     account.TotalLikes,
			ContentCount:   account.ContentCount,
			RecordedAt:     now,
		}
		if err := tx.AddAccountSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to create initial snapshot: %w", err)
		}

		for i := range items {
			content := s.newContentRecord(account.ID, &items[i], avg)
			if err := tx.CreateContent(ctx, content); err != nil {
				return fmt.Errorf("failed to create content %s: %w", content.PlatformContentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account added",
		"handle", account.Handle,
		"followers", account.FollowerCount,
		"content", len(items),
		"avg_views", avg)

	if sendNotification {
		s.sendWelcome(ctx, account)
	}

	return account, nil
}

// UpdateAccount refreshes an account located by handle.
func (s *TikTokScraper) UpdateAccount(ctx context.Context, handle string) (*models.Account, error) {
	handle = NormalizeHandle(handle)

	account, err := s.store.GetAccountByHandle(ctx, s.Platform(), handle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, models.NewError(models.KindNotFound, "scrape.UpdateAccount",
			fmt.Sprintf("account @%s not found", handle))
	}

	return s.refresh(ctx, account)
}

// UpdateAccountByID refreshes an account located by database id.
func (s *TikTokScraper) UpdateAccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, models.NewError(models.KindNotFound, "scrape.UpdateAccountByID",
			fmt.Sprintf("account id %d not found", accountID))
	}

	return s.refresh(ctx, account)
}

// RemoveAccount soft-deletes; no cascading deletion.
func (s *TikTokScraper) RemoveAccount(ctx context.Context, handle string) (bool, error) {
	handle = NormalizeHandle(handle)

	account, err := s.store.GetAccountByHandle(ctx, s.Platform(), handle)
	if err != nil {
		return false, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil || !account.Active() {
		return false, nil
	}

	affected, err := s.store.SetAccountState(ctx, account.ID, models.AccountStateInactive)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate account: %w", err)
	}
	if affected {
		s.logger.Info("account removed from watchlist", "platform", s.Platform(), "handle", handle)
	}
	return affected, nil
}

// TakeAlertCount returns and resets the number of viral notifications
// attempted since the last call. The orchestrator collects it per cycle.
func (s *TikTokScraper) TakeAlertCount() int {
	return int(s.alertsSent.Swap(0))
}

// refresh is the shared update path. The pre-update follower/like counts
// and average are captured first: deltas are computed against them, and
// virality is judged against the old average rather than the one just
// computed from the fresh fetch.
func (s *TikTokScraper) refresh(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.logger.Info("updating account", "handle", account.Handle, "id", account.ID)

	oldFollowers := account.FollowerCount
	oldLikes := account.TotalLikes
	oldAvg := account.AverageEngagement

	profile, err := s.api.FetchAccount(ctx, account.Handle)
	if err != nil {
		return nil, err
	}

	// Prefer the cached secUid for the content fetch; fall back to the
	// one just resolved for accounts that predate caching.
	effectiveID := account.PlatformUserID
	if effectiveID == "" {
		effectiveID = profile.PlatformUserID
		s.logger.Info("no cached platform id, using freshly resolved one", "handle", account.Handle)
	}

	items, err := s.api.FetchContent(ctx, effectiveID, s.cfg.MaxContentPerFetch, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	newAvg := s.averageViews(items)
	now := time.Now().UTC()

	// Full overwrite of mutable fields, always storing the latest secUid.
	account.PlatformUserID = profile.PlatformUserID
	account.Handle = profile.Handle
	account.DisplayName = profile.DisplayName
	account.Bio = profile.Bio
	account.AvatarURL = profile.AvatarURL
	account.FollowerCount = profile.FollowerCount
	account.FollowingCount = profile.FollowingCount
	account.TotalLikes = profile.TotalLikes
	account.ContentCount = profile.ContentCount
	account.AverageEngagement = newAvg
	account.LastSyncedAt = &now

	var alertable []*models.Content

	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		snapshot := &models.AccountSnapshot{
			AccountID:      account.ID,
			FollowerCount:  account.FollowerCount,
			FollowingCount: account.FollowingCount,
			TotalLikes:     account.TotalLikes,
			ContentCount:   account.ContentCount,
			FollowerChange: account.FollowerCount - oldFollowers,
			LikesChange:    account.TotalLikes - oldLikes,
			RecordedAt:     now,
		}
		if err := tx.AddAccountSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to add snapshot: %w", err)
		}

		alertable = alertable[:0]
		for i := range items {
			_, eligible, content, err := s.upsertContent(ctx, tx, account, &items[i], oldAvg)
			if err != nil {
				return err
			}
			if eligible {
				alertable = append(alertable, content)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account updated",
		"handle", account.Handle,
		"followers", account.FollowerCount,
		"follower_change", account.FollowerCount-oldFollowers,
		"viral_detected", len(alertable))

	// Notifications only fire for durably persisted state, so they run
	// strictly after the commit above.
	for _, content := range alertable {
		s.sendViralAlert(ctx, account, content, oldAvg)
	}

	return account, nil
}

// upsertContent inserts or updates one fetched item, keyed by its
// platform content id. Returns (isNew, alertEligible, record, error).
// Alert eligibility is the dual gate: viral now AND never alerted.
func (s *TikTokScraper) upsertContent(ctx context.Context, tx Store, account *models.Account, item *scraptik.ContentData, avg float64) (bool, bool, *models.Content, error) {
	viral := IsViral(item.ViewCount, avg, s.cfg.ViralThresholdMultiplier)

	existing, err := tx.GetContent(ctx, s.Platform(), item.PlatformContentID)
	if err != nil {
		return false, false, nil, fmt.Errorf("failed to look up content %s: %w", item.PlatformContentID, err)
	}

	if existing == nil {
		content := s.newContentRecord(account.ID, item, avg)
		if err := tx.CreateContent(ctx, content); err != nil {
			return false, false, nil, fmt.Errorf("failed to insert content %s: %w", item.PlatformContentID, err)
		}
		return true, content.IsViral, content, nil
	}

	oldViews := existing.ViewCount
	existing.Caption = item.Caption
	existing.ViewCount = item.ViewCount
	existing.LikeCount = item.LikeCount
	existing.CommentCount = item.CommentCount
	existing.ShareCount = item.ShareCount
	existing.UpdatedAt = time.Now().UTC()

	// The viral flag only ever transitions false to true.
	if viral && !existing.IsViral {
		existing.IsViral = true
	}
	eligible := viral && !existing.AlertSent

	if err := tx.UpdateContentMetrics(ctx, existing); err != nil {
		return false, false, nil, fmt.Errorf("failed to update content %s: %w", item.PlatformContentID, err)
	}

	// History only when the primary metric moved by more than 10%, to
	// bound snapshot volume to meaningful changes.
	if oldViews > 0 && relativeChange(oldViews, item.ViewCount) > 0.1 {
		snapshot := &models.ContentSnapshot{
			ContentID:    existing.ID,
			ViewCount:    item.ViewCount,
			LikeCount:    item.LikeCount,
			CommentCount: item.CommentCount,
			ShareCount:   item.ShareCount,
			RecordedAt:   time.Now().UTC(),
		}
		if err := tx.AddContentSnapshot(ctx, snapshot); err != nil {
			return false, false, nil, fmt.Errorf("failed to add content snapshot: %w", err)
		}
	}

	return false, eligible, existing, nil
}

func (s *TikTokScraper) newContentRecord(accountID int64, item *scraptik.ContentData, avg float64) *models.Content {
	postedAt := item.PostedAt
	return &models.Content{
		AccountID:         accountID,
		Platform:          s.Platform(),
		PlatformContentID: item.PlatformContentID,
		Caption:           item.Caption,
		MediaURL:          item.MediaURL,
		ThumbnailURL:      item.ThumbnailURL,
		DurationSeconds:   item.DurationSeconds,
		ViewCount:         item.ViewCount,
		LikeCount:         item.LikeCount,
		CommentCount:      item.CommentCount,
		ShareCount:        item.ShareCount,
		IsViral:           IsViral(item.ViewCount, avg, s.cfg.ViralThresholdMultiplier),
		AlertSent:         false,
		PostedAt:          &postedAt,
	}
}

// averageViews is the rolling mean over items with a strictly positive
// primary metric. An empty or all-zero window yields 0, which is worth a
// warning but is not an error.
func (s *TikTokScraper) averageViews(items []scraptik.ContentData) float64 {
	if len(items) == 0 {
		s.logger.Warn("no content available for average calculation")
		return 0
	}

	var sum int64
	var count int
	for i := range items {
		if items[i].ViewCount > 0 {
			sum += items[i].ViewCount
			count++
		}
	}

	if count == 0 {
		s.logger.Warn("all content has zero views, average will be 0", "items", len(items))
		return 0
	}

	return float64(sum) / float64(count)
}

// sendViralAlert delivers one notification and records the attempt. The
// alert-sent flag is set regardless of delivery outcome so a flaky
// channel cannot cause retry storms, and the audit row is written even
// on failure.
func (s *TikTokScraper) sendViralAlert(ctx context.Context, account *models.Account, content *models.Content, avg float64) {
	message := notify.ViralAlertMessage(account.Handle, content, avg)

	sendErr := s.notifier.Send(ctx, message)
	success := sendErr == nil

	s.alertsSent.Add(1)
	s.collector.ObserveViralAlert(string(s.Platform()), success)

	var multiplier float64
	if avg > 0 {
		multiplier = float64(content.ViewCount) / avg
	}

	record := &models.AlertRecord{
		ID:        uuid.New().String(),
		ContentID: &content.ID,
		AccountID: &account.ID,
		Platform:  s.Platform(),
		AlertType: models.AlertTypeViral,
		Message: fmt.Sprintf("Viral alert for @%s - %s views (%.1fx avg)",
			account.Handle, notify.FormatCount(content.ViewCount), multiplier),
		SentAt:  time.Now().UTC(),
		Success: success,
	}
	if sendErr != nil {
		record.ErrorText = sendErr.Error()
	}

	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.MarkContentAlerted(ctx, content.ID); err != nil {
			return err
		}
		return tx.AddAlertRecord(ctx, record)
	})
	if err != nil {
		s.logger.Error("failed to record viral alert", "content_id", content.ID, "error", err)
		return
	}
	content.AlertSent = true

	if sendErr != nil {
		s.logger.Error("viral alert delivery failed",
			"handle", account.Handle,
			"content_id", content.PlatformContentID,
			"error", sendErr)
		return
	}

	s.logger.Info("viral alert sent",
		"handle", account.Handle,
		"content_id", content.PlatformContentID,
		"views", content.ViewCount)
}

// sendWelcome is best-effort; failures are logged and swallowed so an
// add can never fail because notifications failed.
func (s *TikTokScraper) sendWelcome(ctx context.Context, account *models.Account) {
	message := notify.WelcomeMessage(account.Handle, account.FollowerCount, s.cfg.SyncInterval)

	sendErr := s.notifier.Send(ctx, message)

	record := &models.AlertRecord{
		ID:        uuid.New().String(),
		AccountID: &account.ID,
		Platform:  s.Platform(),
		AlertType: models.AlertTypeWelcome,
		Message:   fmt.Sprintf("Welcome alert for @%s", account.Handle),
		SentAt:    time.Now().UTC(),
		Success:   sendErr == nil,
	}
	if sendErr != nil {
		record.ErrorText = sendErr.Error()
		s.logger.Warn("failed to send welcome notification", "handle", account.Handle, "error", sendErr)
	}

	if err := s.store.AddAlertRecord(ctx, record); err != nil {
		s.logger.Error("failed to record welcome alert", "handle", account.Handle, "error", err)
	}
}

func relativeChange(oldValue, newValue int64) float64 {
	diff := newValue - oldValue
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(oldValue)
}
