package scraptik

import (
	"fmt"
	"sort"
	"time"
)

// The vendor has shipped at least three response shapes across versions:
// nested under "data", nested under a named wrapper ("userInfo"), and
// flat. The mappers probe each known path in order and fail only when
// none yields the required fields.

func mapAccount(body map[string]any, handle string) (*AccountData, error) {
	user, stats := accountSections(body)
	if user == nil {
		return nil, fmt.Errorf("no user object in response")
	}
	if stats == nil {
		stats = user
	}

	platformID := stringField(user, "secUid", "sec_uid", "id", "uid")
	if platformID == "" {
		// Without the native id the account→content flow cannot run.
		return nil, fmt.Errorf("response missing platform user id")
	}

	username := stringField(user, "uniqueId", "unique_id", "username")
	if username == "" {
		username = handle
	}

	return &AccountData{
		PlatformUserID: platformID,
		Handle:         username,
		DisplayName:    stringField(user, "nickname", "nickName", "display_name"),
		Bio:            stringField(user, "signature", "bio"),
		AvatarURL:      stringField(user, "avatarLarger", "avatar_larger", "avatar"),
		FollowerCount:  intField(stats, "followerCount", "follower_count", "followers"),
		FollowingCount: intField(stats, "followingCount", "following_count", "following"),
		TotalLikes:     intField(stats, "heartCount", "heart_count", "heart", "likes"),
		ContentCount:   intField(stats, "videoCount", "video_count", "videos"),
	}, nil
}

// accountSections locates the user and stats objects across the known
// envelope shapes.
func accountSections(body map[string]any) (user, stats map[string]any) {
	if data, ok := body["data"].(map[string]any); ok {
		user = mapField(data, "user")
		if user == nil {
			user = data
		}
		stats = mapField(data, "stats")
		return user, stats
	}

	if info, ok := body["userInfo"].(map[string]any); ok {
		return mapField(info, "user"), mapField(info, "stats")
	}

	if u, ok := body["user"].(map[string]any); ok {
		return u, mapField(body, "stats")
	}

	// Fully flat response.
	if stringField(body, "secUid", "sec_uid", "id", "uid") != "" {
		return body, body
	}

	return nil, nil
}

func mapContentList(body map[string]any, maxItems, daysBack int) ([]ContentData, error) {
	rawItems := contentItems(body)
	if rawItems == nil {
		return nil, fmt.Errorf("no post list in response")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)
	items := make([]ContentData, 0, len(rawItems))

	for _, raw := range rawItems {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		postedAt := parsePostedAt(item)
		if daysBack > 0 && postedAt.Before(cutoff) {
			continue
		}

		stats := mapField(item, "stats")
		if stats == nil {
			stats = mapField(item, "statistics")
		}
		if stats == nil {
			stats = item
		}

		id := stringField(item, "aweme_id", "id", "video_id")
		if id == "" {
			continue
		}

		items = append(items, ContentData{
			PlatformContentID: id,
			Caption:           stringField(item, "desc", "description", "title"),
			MediaURL:          extractMediaURL(item),
			ThumbnailURL:      extractThumbnail(item),
			DurationSeconds:   int(videoDuration(item)),
			ViewCount:         intField(stats, "playCount", "play_count", "views"),
			LikeCount:         intField(stats, "diggCount", "digg_count", "likes", "like_count"),
			CommentCount:      intField(stats, "commentCount", "comment_count", "comments"),
			ShareCount:        intField(stats, "shareCount", "share_count", "shares"),
			PostedAt:          postedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PostedAt.After(items[j].PostedAt)
	})

	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items, nil
}

// contentItems locates the post array across the known envelope shapes.
func contentItems(body map[string]any) []any {
	if data, ok := body["data"].(map[string]any); ok {
		for _, key := range []string{"videos", "itemList", "aweme_list", "posts"} {
			if list, ok := data[key].([]any); ok {
				return list
			}
		}
	}

	for _, key := range []string{"itemList", "videos", "aweme_list", "posts"} {
		if list, ok := body[key].([]any); ok {
			return list
		}
	}

	return nil
}

func parsePostedAt(item map[string]any) time.Time {
	raw, ok := item["createTime"]
	if !ok {
		raw = item["create_time"]
	}

	switch v := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	case float64:
		if v > 0 {
			return time.Unix(int64(v), 0).UTC()
		}
	}

	return time.Now().UTC()
}

func extractMediaURL(item map[string]any) string {
	if video := mapField(item, "video"); video != nil {
		if u := stringField(video, "playAddr", "play_addr_url", "downloadAddr"); u != "" {
			return u
		}
	}
	return stringField(item, "video_url", "play_url")
}

func extractThumbnail(item map[string]any) string {
	if video := mapField(item, "video"); video != nil {
		if u := stringField(video, "cover", "originCover", "dynamicCover"); u != "" {
			return u
		}
	}
	return stringField(item, "thumbnail", "cover_url")
}

func videoDuration(item map[string]any) int64 {
	if d := intField(item, "duration"); d > 0 {
		return d
	}
	if video := mapField(item, "video"); video != nil {
		return intField(video, "duration")
	}
	return 0
}

// --- loose field accessors ---

func mapField(m map[string]any, key string) map[string]any {
	v, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	return v
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if n, ok := numberValue(m[key]); ok {
			return int64(n)
		}
	}
	return 0
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
