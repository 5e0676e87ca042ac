package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	ScrapTik ScrapTikConfig
	Telegram TelegramConfig
	Scraper  ScraperConfig
	Digest   DigestConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	URL string
}

// ScrapTikConfig configures the RapidAPI TikTok client.
type ScrapTikConfig struct {
	APIKey         string
	APIHost        string
	RequestTimeout time.Duration
	// RequestDelay is slept before every outbound attempt to stay under
	// the provider's per-second quota.
	RequestDelay time.Duration
	MaxRetries   int
	// RetryBackoff is the first backoff after a 429; it doubles on each
	// further attempt (5s, 10s, 20s by default).
	RetryBackoff time.Duration
}

// TelegramConfig configures the outbound notification channel.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// ScraperConfig holds tuning for the sync engine.
type ScraperConfig struct {
	ViralThresholdMultiplier float64
	LookbackDays             int
	MaxContentPerFetch       int
	SyncInterval             time.Duration
	// AccountDelay is the pause between accounts during bulk sync, a
	// second throttling layer on top of the API client's own pacing.
	AccountDelay time.Duration
}

// DigestConfig configures the optional post-sync digest. Disabled when
// the API key is empty.
type DigestConfig struct {
	OpenAIKey string
	Model     string
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultScrapTikHost   = "scraptik.p.rapidapi.com"
	defaultRequestTimeout = 30 * time.Second
	defaultRequestDelay   = 1500 * time.Millisecond
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 5 * time.Second

	defaultViralThreshold = 5.0
	defaultLookbackDays   = 30
	defaultMaxContent     = 50
	defaultSyncInterval   = 6 * time.Hour
	defaultAccountDelay   = 2 * time.Second

	defaultDigestModel = "gpt-4o-mini"

	defaultLogFormat = "json"
)

// Load reads configuration from environment variables, applying defaults
// when values are not provided.
func Load() (Config, error) {
	// Cloud platforms set PORT; allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		ScrapTik: ScrapTikConfig{
			APIKey:         os.Getenv("RAPIDAPI_KEY"),
			APIHost:        getEnv("RAPIDAPI_HOST", defaultScrapTikHost),
			RequestTimeout: defaultRequestTimeout,
			RequestDelay:   defaultRequestDelay,
			MaxRetries:     defaultMaxRetries,
			RetryBackoff:   defaultRetryBackoff,
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Scraper: ScraperConfig{
			ViralThresholdMultiplier: defaultViralThreshold,
			LookbackDays:             defaultLookbackDays,
			MaxContentPerFetch:       defaultMaxContent,
			SyncInterval:             defaultSyncInterval,
			AccountDelay:             defaultAccountDelay,
		},
		Digest: DigestConfig{
			OpenAIKey: os.Getenv("OPENAI_API_KEY"),
			Model:     getEnv("DIGEST_MODEL", defaultDigestModel),
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
	}

	if v := os.Getenv("VIRAL_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("invalid VIRAL_THRESHOLD: must be a positive number")
		}
		cfg.Scraper.ViralThresholdMultiplier = f
	}

	if v := os.Getenv("POSTS_LOOKBACK_DAYS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid POSTS_LOOKBACK_DAYS: %w", err)
		}
		cfg.Scraper.LookbackDays = n
	}

	if v := os.Getenv("MAX_CONTENT_PER_FETCH"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_CONTENT_PER_FETCH: %w", err)
		}
		cfg.Scraper.MaxContentPerFetch = n
	}

	if v := os.Getenv("SYNC_INTERVAL_HOURS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SYNC_INTERVAL_HOURS: %w", err)
		}
		cfg.Scraper.SyncInterval = time.Duration(n) * time.Hour
	}

	if v := os.Getenv("SYNC_ACCOUNT_DELAY_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SYNC_ACCOUNT_DELAY_SECONDS: %w", err)
		}
		cfg.Scraper.AccountDelay = d
	}

	if v := os.Getenv("API_REQUEST_DELAY_MS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid API_REQUEST_DELAY_MS: %w", err)
		}
		cfg.ScrapTik.RequestDelay = time.Duration(n) * time.Millisecond
	}

	if v := os.Getenv("API_MAX_RETRIES"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid API_MAX_RETRIES: %w", err)
		}
		cfg.ScrapTik.MaxRetries = n
	}

	if v := os.Getenv("API_RETRY_BACKOFF_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid API_RETRY_BACKOFF_SECONDS: %w", err)
		}
		cfg.ScrapTik.RetryBackoff = d
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

// Validate returns the names of required variables that are missing.
func (c Config) Validate() []string {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.ScrapTik.APIKey == "" {
		missing = append(missing, "RAPIDAPI_KEY")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	return missing
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
