package scraptik

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/models"
)

func testConfig() config.ScrapTikConfig {
	return config.ScrapTikConfig{
		APIKey:         "test-key",
		APIHost:        "scraptik.p.rapidapi.com",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   time.Millisecond,
	}
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(testConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithBaseURL(srv.URL),
		WithLimiter(NopLimiter{}))
}

func TestFetchAccountResponseShapes(t *testing.T) {
	shapes := []struct {
		name string
		body string
	}{
		{
			name: "data wrapped",
			body: `{"data": {
				"user": {"secUid": "sec-123", "uniqueId": "creator", "nickname": "Creator", "signature": "bio"},
				"stats": {"followerCount": 1000, "followingCount": 50, "heartCount": 20000, "videoCount": 42}
			}}`,
		},
		{
			name: "userInfo wrapped",
			body: `{"userInfo": {
				"user": {"secUid": "sec-123", "uniqueId": "creator", "nickname": "Creator", "signature": "bio"},
				"stats": {"followerCount": 1000, "followingCount": 50, "heartCount": 20000, "videoCount": 42}
			}}`,
		},
		{
			name: "flat snake_case",
			body: `{"sec_uid": "sec-123", "unique_id": "creator", "nickname": "Creator", "bio": "bio",
				"follower_count": 1000, "following_count": 50, "heart_count": 20000, "video_count": 42}`,
		},
	}

	for _, shape := range shapes {
		t.Run(shape.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/get-user" {
					t.Errorf("path = %q, want /get-user", r.URL.Path)
				}
				if got := r.URL.Query().Get("username"); got != "creator" {
					t.Errorf("username = %q, want creator", got)
				}
				if got := r.Header.Get("x-rapidapi-key"); got != "test-key" {
					t.Errorf("x-rapidapi-key = %q, want test-key", got)
				}
				fmt.Fprint(w, shape.body)
			})

			account, err := c.FetchAccount(context.Background(), "creator")
			if err != nil {
				t.Fatalf("FetchAccount failed: %v", err)
			}

			if account.PlatformUserID != "sec-123" {
				t.Errorf("platform user id = %q, want sec-123", account.PlatformUserID)
			}
			if account.Handle != "creator" {
				t.Errorf("handle = %q, want creator", account.Handle)
			}
			if account.FollowerCount != 1000 {
				t.Errorf("followers = %d, want 1000", account.FollowerCount)
			}
			if account.TotalLikes != 20000 {
				t.Errorf("total likes = %d, want 20000", account.TotalLikes)
			}
		})
	}
}

func TestFetchAccountMissingPlatformID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"user": {"uniqueId": "creator"}}}`)
	})

	_, err := c.FetchAccount(context.Background(), "creator")
	if !models.IsKind(err, models.KindParse) {
		t.Errorf("expected parse error for missing platform id, got %v", err)
	}
}

func TestFetchAccountEmptyHandle(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty handle")
	})

	_, err := c.FetchAccount(context.Background(), "")
	if !models.IsKind(err, models.KindInvalidArgument) {
		t.Errorf("expected invalid-argument error, got %v", err)
	}
}

func TestFetchContent(t *testing.T) {
	now := time.Now().Unix()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user-posts" {
			t.Errorf("path = %q, want /user-posts", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "sec-123" {
			t.Errorf("user_id = %q, want sec-123", got)
		}
		fmt.Fprintf(w, `{"data": {"videos": [
			{"aweme_id": "v-old", "desc": "ancient", "create_time": %d,
			 "statistics": {"play_count": 10, "digg_count": 1}},
			{"aweme_id": "v-new", "desc": "fresh", "create_time": %d,
			 "statistics": {"play_count": 500, "digg_count": 40, "comment_count": 3, "share_count": 2}}
		]}}`, now-90*24*3600, now-3600)
	})

	items, err := c.FetchContent(context.Background(), "sec-123", 50, 30)
	if err != nil {
		t.Fatalf("FetchContent failed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (old item outside lookback)", len(items))
	}
	item := items[0]
	if item.PlatformContentID != "v-new" {
		t.Errorf("content id = %q, want v-new", item.PlatformContentID)
	}
	if item.ViewCount != 500 || item.LikeCount != 40 || item.CommentCount != 3 || item.ShareCount != 2 {
		t.Errorf("unexpected counts: %+v", item)
	}
}

func TestFetchContentCapsAndSorts(t *testing.T) {
	now := time.Now().Unix()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"itemList": [
			{"id": "older", "createTime": %d, "stats": {"playCount": 1}},
			{"id": "newest", "createTime": %d, "stats": {"playCount": 2}},
			{"id": "middle", "createTime": %d, "stats": {"playCount": 3}}
		]}`, now-3*3600, now-3600, now-2*3600)
	})

	items, err := c.FetchContent(context.Background(), "sec-123", 2, 30)
	if err != nil {
		t.Fatalf("FetchContent failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (capped)", len(items))
	}
	if items[0].PlatformContentID != "newest" || items[1].PlatformContentID != "middle" {
		t.Errorf("items not sorted newest first: %q, %q",
			items[0].PlatformContentID, items[1].PlatformContentID)
	}
}

func TestFetchContentEmptyPlatformID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty platform id")
	})

	_, err := c.FetchContent(context.Background(), "", 50, 30)
	if !models.IsKind(err, models.KindInvalidArgument) {
		t.Errorf("expected invalid-argument error, got %v", err)
	}
}

func TestRateLimitRetryExhaustion(t *testing.T) {
	var calls atomic.Int64
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchAccount(context.Background(), "creator")
	if !models.IsKind(err, models.KindRateLimited) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}

	// Initial attempt plus MaxRetries retries.
	if got := calls.Load(); got != 4 {
		t.Errorf("made %d attempts, want 4", got)
	}
}

func TestRateLimitRecovers(t *testing.T) {
	var calls atomic.Int64
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data": {"user": {"secUid": "sec-123", "uniqueId": "creator"}}}`)
	})

	account, err := c.FetchAccount(context.Background(), "creator")
	if err != nil {
		t.Fatalf("FetchAccount failed after recovery: %v", err)
	}
	if account.PlatformUserID != "sec-123" {
		t.Errorf("platform user id = %q, want sec-123", account.PlatformUserID)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("made %d attempts, want 3", got)
	}
}

func TestSoftFailureDetection(t *testing.T) {
	bodies := []struct {
		name string
		body string
	}{
		{"error string", `{"error": "user not found"}`},
		{"status error", `{"status": "error"}`},
		{"ok false", `{"ok": false}`},
		{"nonzero status_code", `{"status_code": 10201}`},
	}

	for _, tt := range bodies {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := c.FetchAccount(context.Background(), "creator")
			if !models.IsKind(err, models.KindParse) {
				t.Errorf("expected parse error for soft failure, got %v", err)
			}
		})
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   models.ErrorKind
	}{
		{http.StatusUnauthorized, models.KindAuth},
		{http.StatusForbidden, models.KindAuth},
		{http.StatusNotFound, models.KindNotFound},
		{http.StatusInternalServerError, models.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := c.FetchAccount(context.Background(), "creator")
			if !models.IsKind(err, tt.kind) {
				t.Errorf("status %d: expected kind %v, got %v", tt.status, tt.kind, err)
			}
		})
	}
}

func TestClientPacingFollowsConfiguredDelay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("custom delay gets its own limiter", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestDelay = 20 * time.Millisecond

		c := NewClient(cfg, logger)

		sl, ok := c.limiter.(*SerialLimiter)
		if !ok {
			t.Fatalf("limiter is %T, want *SerialLimiter", c.limiter)
		}
		if sl == DefaultLimiter {
			t.Fatal("custom delay should not join the shared default limiter")
		}
		if sl.delay != 20*time.Millisecond {
			t.Errorf("limiter delay = %v, want 20ms", sl.delay)
		}
	})

	t.Run("standard delay shares the default limiter", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestDelay = 1500 * time.Millisecond

		if c := NewClient(cfg, logger); c.limiter != DefaultLimiter {
			t.Errorf("limiter = %T, want the shared DefaultLimiter", c.limiter)
		}
	})

	t.Run("zero delay shares the default limiter", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequestDelay = 0

		if c := NewClient(cfg, logger); c.limiter != DefaultLimiter {
			t.Errorf("limiter = %T, want the shared DefaultLimiter", c.limiter)
		}
	})
}

func TestSerialLimiterEnforcesDelay(t *testing.T) {
	limiter := NewSerialLimiter(20 * time.Millisecond)

	start := time.Now()
	release, err := limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()
	release, err = limiter.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	release()

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("two acquisitions took %v, want at least 40ms", elapsed)
	}
}

func TestSerialLimiterCancellation(t *testing.T) {
	limiter := NewSerialLimiter(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := limiter.Acquire(ctx); err == nil {
		t.Error("expected an error when ctx expires during the delay")
	}
}
