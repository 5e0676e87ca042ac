package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pulsehq/pulse/internal/config"
)

// Notifier is the outbound notification channel consumed by the sync
// engine. Delivery is best-effort: a non-nil error means the message did
// not reach the chat, and callers decide whether that matters.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier delivers messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTelegramNotifier creates a notifier for the configured bot and chat.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL redirects API calls, for tests.
func (n *TelegramNotifier) WithBaseURL(u string) *TelegramNotifier {
	n.baseURL = u
	return n
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Send posts one HTML-formatted message to the configured chat.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)

	payload := sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram API error: %s", result.Description)
		}
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	n.logger.Info("telegram message sent", "text_length", len(text))
	return nil
}
