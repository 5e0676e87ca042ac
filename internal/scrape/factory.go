package scrape

import (
	"fmt"
	"sort"

	"github.com/pulsehq/pulse/internal/models"
)

// Factory hands out per-platform scrapers built over a shared set of
// dependencies. Constructors run lazily on first request and the result
// is cached, so every caller sees the same instance per platform.
type Factory struct {
	deps     Deps
	registry map[models.Platform]func(Deps) Scraper
	cache    map[models.Platform]Scraper
}

// NewFactory builds a factory with the default platform registry.
func NewFactory(deps Deps) *Factory {
	return &Factory{
		deps: deps,
		registry: map[models.Platform]func(Deps) Scraper{
			models.PlatformTikTok:  NewTikTokScraper,
			models.PlatformTwitter: NewTwitterScraper,
			models.PlatformReddit:  NewRedditScraper,
		},
		cache: make(map[models.Platform]Scraper),
	}
}

// Scraper returns the scraper for a platform, or an error naming the
// supported set when the platform is unknown.
func (f *Factory) Scraper(platform models.Platform) (Scraper, error) {
	if s, ok := f.cache[platform]; ok {
		return s, nil
	}

	build, ok := f.registry[platform]
	if !ok {
		return nil, models.NewError(models.KindInvalidArgument, "scrape.Factory",
			fmt.Sprintf("unsupported platform %q, supported: %v", platform, f.SupportedPlatforms()))
	}

	s := build(f.deps)
	f.cache[platform] = s
	return s, nil
}

// SupportedPlatforms lists registered platforms in stable order.
func (f *Factory) SupportedPlatforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(f.registry))
	for p := range f.registry {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
