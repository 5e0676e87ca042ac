package database

import (
	"context"

	"github.com/pulsehq/pulse/internal/models"
)

func (s *PostgresStore) AddAlertRecord(ctx context.Context, record *models.AlertRecord) error {
	query := `
		INSERT INTO alert_records
		(id, content_id, account_id, platform, alert_type, message,
		 sent_at, success, error_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.q.ExecContext(ctx, query,
		record.ID,
		record.ContentID,
		record.AccountID,
		record.Platform,
		record.AlertType,
		record.Message,
		record.SentAt,
		record.Success,
		record.ErrorText,
	)
	return err
}

// RecentAlertRecords returns the latest alert attempts, newest first.
// Used by the management API.
func (s *PostgresStore) RecentAlertRecords(ctx context.Context, limit int) ([]*models.AlertRecord, error) {
	query := `
		SELECT id, content_id, account_id, platform, alert_type, message,
		       sent_at, success, error_text
		FROM alert_records
		ORDER BY sent_at DESC
		LIMIT $1
	`

	rows, err := s.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AlertRecord
	for rows.Next() {
		var record models.AlertRecord
		err := rows.Scan(
			&record.ID,
			&record.ContentID,
			&record.AccountID,
			&record.Platform,
			&record.AlertType,
			&record.Message,
			&record.SentAt,
			&record.Success,
			&record.ErrorText,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
