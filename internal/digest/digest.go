// Package digest turns a finished sync report into a short natural
// language summary and delivers it through the notification channel.
// Optional: when no OpenAI key is configured a plain templated digest
// is sent instead.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pulsehq/pulse/internal/config"
	"github.com/pulsehq/pulse/internal/models"
	"github.com/pulsehq/pulse/internal/notify"
)

// chatCompleter is the slice of the OpenAI client we use; tests swap in
// a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces and sends sync digests.
type Generator struct {
	client   chatCompleter
	model    string
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewGenerator builds a digest generator. With an empty API key the
// generator still works, falling back to the templated digest.
func NewGenerator(cfg config.DigestConfig, notifier notify.Notifier, logger *slog.Logger) *Generator {
	g := &Generator{
		model:    cfg.Model,
		notifier: notifier,
		logger:   logger,
	}
	if cfg.OpenAIKey != "" {
		g.client = openai.NewClient(cfg.OpenAIKey)
	}
	return g
}

// SendDigest summarizes the report and delivers it. Digest failures are
// reported but callers treat them as non-fatal; a sync is not less
// successful because its recap did not go out.
func (g *Generator) SendDigest(ctx context.Context, report *models.SyncReport) error {
	text := notify.SyncDigestFallback(report)

	if g.client != nil {
		generated, err := g.generate(ctx, report)
		if err != nil {
			g.logger.Warn("digest generation failed, sending fallback", "error", err)
		} else {
			text = generated
		}
	}

	if err := g.notifier.Send(ctx, text); err != nil {
		return fmt.Errorf("failed to deliver sync digest: %w", err)
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, report *models.SyncReport) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(report)},
		},
	}

	// Beta models reject explicit temperature.
	if !strings.Contains(g.model, "gpt-5") && !strings.Contains(g.model, "o1") {
		req.Temperature = 0.7
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(report *models.SyncReport) string {
	var b strings.Builder
	b.WriteString("Write a short, friendly Telegram message (2-4 sentences, no markdown) summarizing this social media sync run:\n")
	fmt.Fprintf(&b, "- accounts synced: %d succeeded, %d failed\n", report.Success, report.Failed)
	fmt.Fprintf(&b, "- viral alerts sent: %d\n", report.ViralAlerts)
	fmt.Fprintf(&b, "- duration: %s\n", report.Duration.Round(time.Second))
	for platform, result := range report.ByPlatform {
		fmt.Fprintf(&b, "- %s: %d ok, %d failed\n", platform, result.Success, result.Failed)
	}
	return b.String()
}
