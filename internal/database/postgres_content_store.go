package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsehq/pulse/internal/models"
)

const contentColumns = `
	id, account_id, platform, platform_content_id, caption, media_url,
	thumbnail_url, duration_seconds, view_count, like_count, comment_count,
	share_count, upvote_ratio, is_crosspost, is_viral, alert_sent,
	posted_at, created_at, updated_at
`

func (s *PostgresStore) GetContent(ctx context.Context, platform models.Platform, platformContentID string) (*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content
		WHERE platform = $1 AND platform_content_id = $2
	`

	content, err := scanContentRow(s.q.QueryRowContext(ctx, query, platform, platformContentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *PostgresStore) CreateContent(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO content
		(account_id, platform, platform_content_id, caption, media_url,
		 thumbnail_url, duration_seconds, view_count, like_count,
		 comment_count, share_count, upvote_ratio, is_crosspost, is_viral,
		 alert_sent, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := s.q.QueryRowContext(ctx, query,
		content.AccountID,
		content.Platform,
		content.PlatformContentID,
		content.Caption,
		content.MediaURL,
		content.ThumbnailURL,
		content.DurationSeconds,
		content.ViewCount,
		content.LikeCount,
		content.CommentCount,
		content.ShareCount,
		content.UpvoteRatio,
		content.IsCrosspost,
		content.IsViral,
		content.AlertSent,
		content.PostedAt,
	).Scan(&content.ID, &content.CreatedAt, &content.UpdatedAt)

	if isUniqueViolation(err) {
		return models.NewError(models.KindInvalidArgument, "database.CreateContent",
			fmt.Sprintf("content %s already exists on %s", content.PlatformContentID, content.Platform))
	}
	return err
}

func (s *PostgresStore) UpdateContentMetrics(ctx context.Context, content *models.Content) error {
	query := `
		UPDATE content SET
			caption = $2,
			view_count = $3,
			like_count = $4,
			comment_count = $5,
			share_count = $6,
			is_viral = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.q.QueryRowContext(ctx, query,
		content.ID,
		content.Caption,
		content.ViewCount,
		content.LikeCount,
		content.CommentCount,
		content.ShareCount,
		content.IsViral,
	).Scan(&content.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.NewError(models.KindNotFound, "database.UpdateContentMetrics",
			fmt.Sprintf("content id %d not found", content.ID))
	}
	return err
}

func (s *PostgresStore) MarkContentAlerted(ctx context.Context, contentID int64) error {
	query := `
		UPDATE content SET alert_sent = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	_, err := s.q.ExecContext(ctx, query, contentID)
	return err
}

func (s *PostgresStore) AddContentSnapshot(ctx context.Context, snapshot *models.ContentSnapshot) error {
	query := `
		INSERT INTO content_snapshots
		(content_id, view_count, like_count, comment_count, share_count, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return s.q.QueryRowContext(ctx, query,
		snapshot.ContentID,
		snapshot.ViewCount,
		snapshot.LikeCount,
		snapshot.CommentCount,
		snapshot.ShareCount,
		snapshot.RecordedAt,
	).Scan(&snapshot.ID)
}

func scanContentRow(row rowScanner) (*models.Content, error) {
	var content models.Content
	var upvoteRatio sql.NullFloat64
	var isCrosspost sql.NullBool
	var postedAt sql.NullTime

	err := row.Scan(
		&content.ID,
		&content.AccountID,
		&content.Platform,
		&content.PlatformContentID,
		&content.Caption,
		&content.MediaURL,
		&content.ThumbnailURL,
		&content.DurationSeconds,
		&content.ViewCount,
		&content.LikeCount,
		&content.CommentCount,
		&content.ShareCount,
		&upvoteRatio,
		&isCrosspost,
		&content.IsViral,
		&content.AlertSent,
		&postedAt,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if upvoteRatio.Valid {
		content.UpvoteRatio = &upvoteRatio.Float64
	}
	if isCrosspost.Valid {
		content.IsCrosspost = &isCrosspost.Bool
	}
	if postedAt.Valid {
		content.PostedAt = &postedAt.Time
	}
	return &content, nil
}
