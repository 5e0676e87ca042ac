package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Neutralize anything inherited from the host environment.
	for _, key := range []string{
		"PORT", "SERVER_PORT", "VIRAL_THRESHOLD", "POSTS_LOOKBACK_DAYS",
		"MAX_CONTENT_PER_FETCH", "SYNC_INTERVAL_HOURS", "API_REQUEST_DELAY_MS",
		"API_MAX_RETRIES", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.ScrapTik.APIHost != "scraptik.p.rapidapi.com" {
		t.Errorf("api host = %q", cfg.ScrapTik.APIHost)
	}
	if cfg.ScrapTik.RequestDelay != 1500*time.Millisecond {
		t.Errorf("request delay = %v, want 1.5s", cfg.ScrapTik.RequestDelay)
	}
	if cfg.ScrapTik.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.ScrapTik.MaxRetries)
	}
	if cfg.ScrapTik.RetryBackoff != 5*time.Second {
		t.Errorf("retry backoff = %v, want 5s", cfg.ScrapTik.RetryBackoff)
	}
	if cfg.Scraper.ViralThresholdMultiplier != 5.0 {
		t.Errorf("viral threshold = %v, want 5.0", cfg.Scraper.ViralThresholdMultiplier)
	}
	if cfg.Scraper.LookbackDays != 30 {
		t.Errorf("lookback days = %d, want 30", cfg.Scraper.LookbackDays)
	}
	if cfg.Scraper.MaxContentPerFetch != 50 {
		t.Errorf("max content = %d, want 50", cfg.Scraper.MaxContentPerFetch)
	}
	if cfg.Scraper.SyncInterval != 6*time.Hour {
		t.Errorf("sync interval = %v, want 6h", cfg.Scraper.SyncInterval)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VIRAL_THRESHOLD", "3.5")
	t.Setenv("POSTS_LOOKBACK_DAYS", "7")
	t.Setenv("MAX_CONTENT_PER_FETCH", "20")
	t.Setenv("SYNC_INTERVAL_HOURS", "12")
	t.Setenv("API_REQUEST_DELAY_MS", "500")
	t.Setenv("API_MAX_RETRIES", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Scraper.ViralThresholdMultiplier != 3.5 {
		t.Errorf("viral threshold = %v, want 3.5", cfg.Scraper.ViralThresholdMultiplier)
	}
	if cfg.Scraper.LookbackDays != 7 {
		t.Errorf("lookback days = %d, want 7", cfg.Scraper.LookbackDays)
	}
	if cfg.Scraper.MaxContentPerFetch != 20 {
		t.Errorf("max content = %d, want 20", cfg.Scraper.MaxContentPerFetch)
	}
	if cfg.Scraper.SyncInterval != 12*time.Hour {
		t.Errorf("sync interval = %v, want 12h", cfg.Scraper.SyncInterval)
	}
	if cfg.ScrapTik.RequestDelay != 500*time.Millisecond {
		t.Errorf("request delay = %v, want 500ms", cfg.ScrapTik.RequestDelay)
	}
	if cfg.ScrapTik.MaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", cfg.ScrapTik.MaxRetries)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("log format = %q, want text", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"VIRAL_THRESHOLD", "-1"},
		{"VIRAL_THRESHOLD", "abc"},
		{"POSTS_LOOKBACK_DAYS", "0"},
		{"SYNC_INTERVAL_HOURS", "-3"},
		{"API_MAX_RETRIES", "lots"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	missing := cfg.Validate()
	want := []string{"DATABASE_URL", "RAPIDAPI_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}

	cfg.Database.URL = "postgres://localhost/pulse"
	cfg.ScrapTik.APIKey = "key"
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "chat"
	if missing := cfg.Validate(); len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}
