package scrape

import (
	"context"
	"fmt"

	"github.com/pulsehq/pulse/internal/models"
)

// TwitterScraper is a placeholder registration so the factory and API
// surface already speak the platform. Every operation reports
// unimplemented until a data provider is wired in.
type TwitterScraper struct{}

func NewTwitterScraper(Deps) Scraper { return &TwitterScraper{} }

func (s *TwitterScraper) Platform() models.Platform {
	return models.PlatformTwitter
}

func (s *TwitterScraper) AddAccount(ctx context.Context, handle string, sendNotification bool) (*models.Account, error) {
	return nil, notImplemented(models.PlatformTwitter, "AddAccount")
}

func (s *TwitterScraper) UpdateAccount(ctx context.Context, handle string) (*models.Account, error) {
	return nil, notImplemented(models.PlatformTwitter, "UpdateAccount")
}

func (s *TwitterScraper) UpdateAccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	return nil, notImplemented(models.PlatformTwitter, "UpdateAccountByID")
}

func (s *TwitterScraper) RemoveAccount(ctx context.Context, handle string) (bool, error) {
	return false, notImplemented(models.PlatformTwitter, "RemoveAccount")
}

// RedditScraper mirrors TwitterScraper: registered, not yet backed by a
// provider.
type RedditScraper struct{}

func NewRedditScraper(Deps) Scraper { return &RedditScraper{} }

func (s *RedditScraper) Platform() models.Platform {
	return models.PlatformReddit
}

func (s *RedditScraper) AddAccount(ctx context.Context, handle string, sendNotification bool) (*models.Account, error) {
	return nil, notImplemented(models.PlatformReddit, "AddAccount")
}

func (s *RedditScraper) UpdateAccount(ctx context.Context, handle string) (*models.Account, error) {
	return nil, notImplemented(models.PlatformReddit, "UpdateAccount")
}

func (s *RedditScraper) UpdateAccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	return nil, notImplemented(models.PlatformReddit, "UpdateAccountByID")
}

func (s *RedditScraper) RemoveAccount(ctx context.Context, handle string) (bool, error) {
	return false, notImplemented(models.PlatformReddit, "RemoveAccount")
}

func notImplemented(platform models.Platform, op string) error {
	return models.NewError(models.KindNotImplemented, "scrape."+op,
		fmt.Sprintf("%s scraping is not implemented yet", platform))
}
