package models

import "time"

// AlertType categorizes outbound notifications.
type AlertType string

const (
	AlertTypeViral      AlertType = "viral_content"
	AlertTypeWelcome    AlertType = "account_added"
	AlertTypeSyncDigest AlertType = "sync_digest"
	AlertTypeError      AlertType = "error"
)

// AlertRecord is an append-only audit row for every notification attempt,
// written regardless of delivery outcome.
type AlertRecord struct {
	ID        string    `json:"id"`
	ContentID *int64    `json:"content_id,omitempty"`
	AccountID *int64    `json:"account_id,omitempty"`
	Platform  Platform  `json:"platform,omitempty"`
	AlertType AlertType `json:"alert_type"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
	Success   bool      `json:"success"`
	ErrorText string    `json:"error_text,omitempty"`
}
