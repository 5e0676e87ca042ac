package models

// Platform identifies a supported social media platform.
type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformTwitter Platform = "twitter"
	PlatformReddit  Platform = "reddit"
)

// AccountState tracks whether an account is actively synced.
// Inactive accounts are soft-deleted: history is kept and the account can
// be reactivated by adding it again.
type AccountState string

const (
	AccountStateActive   AccountState = "active"
	AccountStateInactive AccountState = "inactive"
)
