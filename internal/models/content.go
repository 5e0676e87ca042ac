package models

import "time"

// Content represents one post/item belonging to a tracked account.
// (PlatformContentID, Platform) is unique; later syncs update engagement
// counts in place and never delete rows.
type Content struct {
	ID        int64    `json:"id"`
	AccountID int64    `json:"account_id"`
	Platform  Platform `json:"platform"`

	// PlatformContentID is the platform-assigned content identifier
	// (aweme_id for TikTok). Stored as text; some platforms issue long ids.
	PlatformContentID string `json:"platform_content_id"`

	Caption         string `json:"caption,omitempty"`
	MediaURL        string `json:"media_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`

	// Primary engagement metric: views for TikTok, impressions for
	// Twitter, score for Reddit.
	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
	ShareCount   int64 `json:"share_count"`

	// Platform-specific optional fields.
	UpvoteRatio *float64 `json:"upvote_ratio,omitempty"` // Reddit
	IsCrosspost *bool    `json:"is_crosspost,omitempty"` // Reddit

	// IsViral is set once the primary metric exceeds the account average
	// times the configured multiplier. AlertSent only ever transitions
	// false to true; together the two flags guarantee at most one viral
	// notification per item across sync cycles.
	IsViral   bool `json:"is_viral"`
	AlertSent bool `json:"alert_sent"`

	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ContentSnapshot is an immutable history record for a content item,
// written only when the primary metric moved by more than 10% since the
// last stored value.
type ContentSnapshot struct {
	ID        int64 `json:"id"`
	ContentID int64 `json:"content_id"`

	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
	ShareCount   int64 `json:"share_count"`

	RecordedAt time.Time `json:"recorded_at"`
}
