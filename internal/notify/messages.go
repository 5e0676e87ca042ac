package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/pulsehq/pulse/internal/models"
)

// ViralAlertMessage renders the notification for a content item that
// crossed the viral threshold.
func ViralAlertMessage(handle string, item *models.Content, average float64) string {
	var multiplier, performancePct float64
	if average > 0 {
		multiplier = float64(item.ViewCount) / average
		performancePct = (float64(item.ViewCount) - average) / average * 100
	}

	var desc string
	if item.Caption != "" {
		preview := item.Caption
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		desc = fmt.Sprintf("\n\n📝 <i>%s</i>", preview)
	}

	return fmt.Sprintf(`🚀 <b>VIRAL ALERT!</b>

<b>@%s</b> just posted content performing <b>%.0f%%</b> better than their average!

📊 <b>Stats:</b>
├ Views: <code>%s</code>
├ Avg Views: <code>%s</code>
└ Multiplier: <b>%.1fx</b>%s

🔗 <a href="https://www.tiktok.com/@%s/video/%s">View Post</a>

⏰ Detected: %s`,
		handle,
		performancePct,
		FormatCount(item.ViewCount),
		FormatCount(int64(average)),
		multiplier,
		desc,
		handle,
		item.PlatformContentID,
		time.Now().UTC().Format("2006-01-02 15:04 UTC"))
}

// WelcomeMessage renders the notification sent when an account is added
// to the watchlist.
func WelcomeMessage(handle string, followerCount int64, syncInterval time.Duration) string {
	return fmt.Sprintf(`✅ <b>New Account Added to Watchlist</b>

👤 <b>@%s</b>
👥 Followers: <code>%s</code>

Pulse will now monitor this account for viral content.
Updates every %d hours.`,
		handle,
		FormatCount(followerCount),
		int(syncInterval.Hours()))
}

// ErrorMessage renders an operational error notification.
func ErrorMessage(errorType, details string) string {
	return fmt.Sprintf(`⚠️ <b>Pulse Error Alert</b>

Type: <code>%s</code>
Details: %s

⏰ %s`,
		errorType,
		details,
		time.Now().UTC().Format("2006-01-02 15:04 UTC"))
}

// SyncDigestFallback renders a plain digest of a sync report, used when
// no LLM digest is configured.
func SyncDigestFallback(report *models.SyncReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔄 <b>Sync Complete</b>\n\n")
	fmt.Fprintf(&b, "✅ Success: %d\n❌ Failed: %d\n🚀 Viral alerts: %d\n",
		report.Success, report.Failed, report.ViralAlerts)
	for platform, result := range report.ByPlatform {
		fmt.Fprintf(&b, "\n%s: %d ok / %d failed", platform, result.Success, result.Failed)
	}
	return b.String()
}

// FormatCount abbreviates large numbers the way the alerts show them
// (1.2M, 3.4K).
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
