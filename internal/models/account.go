package models

import "time"

// Account represents one tracked profile on one platform.
type Account struct {
	ID       int64    `json:"id"`
	Platform Platform `json:"platform"`

	// PlatformUserID is the platform's opaque internal identifier (secUid
	// for TikTok). It can exceed 200 characters and, once resolved, is
	// cached so later syncs can fetch content without re-resolving the
	// handle.
	PlatformUserID string `json:"platform_user_id,omitempty"`

	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	TotalLikes     int64 `json:"total_likes"`
	ContentCount   int64 `json:"content_count"`

	// AverageEngagement is the rolling mean of the primary metric over the
	// most recent content window, recomputed on every sync. Viral detection
	// compares individual items against this value.
	AverageEngagement float64 `json:"average_engagement"`

	State        AccountState `json:"state"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastSyncedAt *time.Time   `json:"last_synced_at,omitempty"`
}

// Active reports whether the account is currently synced.
func (a *Account) Active() bool {
	return a.State == AccountStateActive
}

// AccountSnapshot is an immutable point-in-time copy of an account's
// metrics, one per sync cycle. Append-only; the engine never updates or
// deletes snapshots.
type AccountSnapshot struct {
	ID        int64 `json:"id"`
	AccountID int64 `json:"account_id"`

	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	TotalLikes     int64 `json:"total_likes"`
	ContentCount   int64 `json:"content_count"`

	// Deltas against the previous snapshot; zero on the first one.
	FollowerChange int64 `json:"follower_change"`
	LikesChange    int64 `json:"likes_change"`

	RecordedAt time.Time `json:"recorded_at"`
}
