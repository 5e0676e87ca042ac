package scraptik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/metrics"
	"github.com/pulsehq/pulse/internal/models"
)

// AccountData is a parsed profile response.
type AccountData struct {
	PlatformUserID string
	Handle         string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FollowerCount  int64
	FollowingCount int64
	TotalLikes     int64
	ContentCount   int64
}

// ContentData is one parsed post from a content listing.
type ContentData struct {
	PlatformContentID string
	Caption           string
	MediaURL          string
	ThumbnailURL      string
	DurationSeconds   int
	ViewCount         int64
	LikeCount         int64
	CommentCount      int64
	ShareCount        int64
	PostedAt          time.Time
}

// Client fetches TikTok profile and post data through the ScrapTik
// RapidAPI gateway. All outbound calls go through the injected Limiter;
// by default every client shares DefaultLimiter, which fully serializes
// traffic for the process.
type Client struct {
	cfg        config.ScrapTikConfig
	baseURL    string
	httpClient *http.Client
	limiter    Limiter
	logger     *slog.Logger
	collector  *metrics.Collector
}

// Option customizes a Client.
type Option func(*Client)

// WithLimiter replaces the process-wide default limiter.
func WithLimiter(l Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBaseURL overrides the API origin. For tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCollector attaches a metrics collector.
func WithCollector(col *metrics.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// NewClient creates a ScrapTik API client. Pacing follows
// cfg.RequestDelay: while it matches DefaultLimiter's delay the client
// joins the shared process-wide limiter, otherwise it gets its own
// serial limiter at the configured delay.
func NewClient(cfg config.ScrapTikConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: fmt.Sprintf("https://%s", cfg.APIHost),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: limiterFor(cfg.RequestDelay),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchAccount resolves a handle to profile data, including the
// platform-native user id needed for content fetches.
func (c *Client) FetchAccount(ctx context.Context, handle string) (*AccountData, error) {
	const op = "scraptik.FetchAccount"

	if handle == "" {
		return nil, models.NewError(models.KindInvalidArgument, op, "handle must not be empty")
	}

	body, err := c.get(ctx, op, "fetch_account", "/get-user", url.Values{
		"username": {handle},
	})
	if err != nil {
		return nil, err
	}

	account, err := mapAccount(body, handle)
	if err != nil {
		c.logger.Error("failed to parse profile response", "handle", handle, "error", err)
		return nil, models.WrapError(models.KindParse, op, err)
	}

	c.logger.Info("fetched profile",
		"handle", account.Handle,
		"followers", account.FollowerCount,
		"platform_user_id_len", len(account.PlatformUserID))

	return account, nil
}

// FetchContent lists the account's recent posts, newest first, filtered
// to the last daysBack days and capped at maxItems. platformID is the
// opaque user id returned by FetchAccount; an empty id is a programmer
// error, not a remote failure.
func (c *Client) FetchContent(ctx context.Context, platformID string, maxItems, daysBack int) ([]ContentData, error) {
	const op = "scraptik.FetchContent"

	if platformID == "" {
		return nil, models.NewError(models.KindInvalidArgument, op, "platformID must not be empty")
	}
	if maxItems <= 0 {
		maxItems = 50
	}

	body, err := c.get(ctx, op, "fetch_content", "/user-posts", url.Values{
		"user_id": {platformID},
		"count":   {strconv.Itoa(maxItems)},
	})
	if err != nil {
		return nil, err
	}

	items, err := mapContentList(body, maxItems, daysBack)
	if err != nil {
		c.logger.Error("failed to parse posts response", "error", err)
		return nil, models.WrapError(models.KindParse, op, err)
	}

	c.logger.Info("fetched content", "count", len(items), "days_back", daysBack)
	return items, nil
}

// get issues one logical request with pacing and rate-limit retries.
// Only 429 responses are retried; everything else maps straight to the
// engine error taxonomy. Exhausted retries surface as KindRateLimited,
// which callers must treat as terminal.
func (c *Client) get(ctx context.Context, op, operation, path string, params url.Values) (map[string]any, error) {
	var lastStatus int

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		body, status, err := c.doOnce(ctx, op, operation, path, params)
		if err != nil {
			return nil, err
		}

		if status != http.StatusTooManyRequests {
			return body, nil
		}

		lastStatus = status
		if attempt == c.cfg.MaxRetries {
			break
		}

		// Fixed escalating schedule. Header hints are logged in doOnce
		// for observability but never shorten or stretch the backoff.
		backoff := c.cfg.RetryBackoff << attempt
		c.collector.ObserveRateLimitRetry()
		c.logger.Warn("rate limited, backing off",
			"operation", operation,
			"attempt", attempt+1,
			"backoff", backoff)

		select {
		case <-ctx.Done():
			return nil, models.WrapError(models.KindNetwork, op, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return nil, models.NewError(models.KindRateLimited, op,
		fmt.Sprintf("rate limit persisted after %d retries (last status %d)", c.cfg.MaxRetries, lastStatus))
}

// doOnce performs a single paced HTTP attempt. A 429 is reported via the
// returned status so the caller can apply its backoff schedule; every
// other failure is classified here.
func (c *Client) doOnce(ctx context.Context, op, operation, path string, params url.Values) (map[string]any, int, error) {
	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		return nil, 0, models.WrapError(models.KindNetwork, op, err)
	}
	defer release()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, models.WrapError(models.KindInvalidArgument, op, err)
	}
	req.Header.Set("x-rapidapi-key", c.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", c.cfg.APIHost)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := models.KindNetwork
		if isTimeout(err) {
			kind = models.KindTimeout
		}
		c.collector.ObserveAPIRequest("tiktok", operation, "transport_error", time.Since(start))
		return nil, 0, models.WrapError(kind, op, err)
	}
	defer resp.Body.Close()

	c.collector.ObserveAPIRequest("tiktok", operation, strconv.Itoa(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		// Gateways attach reset hints; useful in logs, but the backoff
		// schedule stays fixed.
		c.logger.Warn("rate limit response",
			"operation", operation,
			"retry_after", resp.Header.Get("Retry-After"),
			"ratelimit_reset", resp.Header.Get("X-RateLimit-Reset"))
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, models.NewError(models.KindAuth, op,
			fmt.Sprintf("credentials rejected (status %d), check RAPIDAPI_KEY", resp.StatusCode))

	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, models.NewError(models.KindNotFound, op, "resource not found")

	case resp.StatusCode != http.StatusOK:
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, 0, models.NewError(models.KindNetwork, op,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, models.WrapError(models.KindNetwork, op, err)
	}

	var body map[string]any
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, 0, models.WrapError(models.KindParse, op, err)
	}

	// ScrapTik signals some failures inside a 200 body.
	if err := checkSoftFailure(body); err != nil {
		return nil, 0, models.WrapError(models.KindParse, op, err)
	}

	return body, 0, nil
}

// checkSoftFailure inspects an accepted response for an embedded error
// flag.
func checkSoftFailure(body map[string]any) error {
	if msg, ok := body["error"].(string); ok && msg != "" {
		return fmt.Errorf("api error: %s", msg)
	}
	if status, ok := body["status"].(string); ok && status == "error" {
		return errors.New("api reported status=error")
	}
	if okFlag, ok := body["ok"].(bool); ok && !okFlag {
		return errors.New("api reported ok=false")
	}
	if code, ok := numberValue(body["status_code"]); ok && code != 0 {
		return fmt.Errorf("api reported status_code=%d", int64(code))
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
