package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsehq/pulse/internal/models"
)

const accountColumns = `
	id, platform, platform_user_id, handle, display_name, bio, avatar_url,
	follower_count, following_count, total_likes, content_count,
	average_engagement, state, created_at, updated_at, last_synced_at
`

func (s *PostgresStore) GetAccountByHandle(ctx context.Context, platform models.Platform, handle string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE platform = $1 AND handle = $2
		ORDER BY state = 'active' DESC, updated_at DESC
		LIMIT 1
	`
	return s.scanAccount(s.q.QueryRowContext(ctx, query, platform, handle))
}

func (s *PostgresStore) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	return s.scanAccount(s.q.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) ListActiveAccounts(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE state = 'active'
		ORDER BY platform, handle
	`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts
		(platform, platform_user_id, handle, display_name, bio, avatar_url,
		 follower_count, following_count, total_likes, content_count,
		 average_engagement, state, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := s.q.QueryRowContext(ctx, query,
		account.Platform,
		account.PlatformUserID,
		account.Handle,
		account.DisplayName,
		account.Bio,
		account.AvatarURL,
		account.FollowerCount,
		account.FollowingCount,
		account.TotalLikes,
		account.ContentCount,
		account.AverageEngagement,
		account.State,
		account.LastSyncedAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if isUniqueViolation(err) {
		return models.NewError(models.KindInvalidArgument, "database.CreateAccount",
			fmt.Sprintf("account @%s already exists on %s", account.Handle, account.Platform))
	}
	return err
}

func (s *PostgresStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts SET
			platform_user_id = $2,
			handle = $3,
			display_name = $4,
			bio = $5,
			avatar_url = $6,
			follower_count = $7,
			following_count = $8,
			total_likes = $9,
			content_count = $10,
			average_engagement = $11,
			last_synced_at = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.q.QueryRowContext(ctx, query,
		account.ID,
		account.PlatformUserID,
		account.Handle,
		account.DisplayName,
		account.Bio,
		account.AvatarURL,
		account.FollowerCount,
		account.FollowingCount,
		account.TotalLikes,
		account.ContentCount,
		account.AverageEngagement,
		account.LastSyncedAt,
	).Scan(&account.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.NewError(models.KindNotFound, "database.UpdateAccount",
			fmt.Sprintf("account id %d not found", account.ID))
	}
	return err
}

func (s *PostgresStore) SetAccountState(ctx context.Context, id int64, state models.AccountState) (bool, error) {
	query := `
		UPDATE accounts SET state = $2, updated_at = NOW()
		WHERE id = $1 AND state <> $2
	`

	result, err := s.q.ExecContext(ctx, query, id, state)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *PostgresStore) AddAccountSnapshot(ctx context.Context, snapshot *models.AccountSnapshot) error {
	query := `
		INSERT INTO account_snapshots
		(account_id, follower_count, following_count, total_likes,
		 content_count, follower_change, likes_change, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return s.q.QueryRowContext(ctx, query,
		snapshot.AccountID,
		snapshot.FollowerCount,
		snapshot.FollowingCount,
		snapshot.TotalLikes,
		snapshot.ContentCount,
		snapshot.FollowerChange,
		snapshot.LikesChange,
		snapshot.RecordedAt,
	).Scan(&snapshot.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanAccount(row *sql.Row) (*models.Account, error) {
	account, err := scanAccountRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func scanAccountRow(row rowScanner) (*models.Account, error) {
	var account models.Account
	var lastSynced sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Platform,
		&account.PlatformUserID,
		&account.Handle,
		&account.DisplayName,
		&account.Bio,
		&account.AvatarURL,
		&account.FollowerCount,
		&account.FollowingCount,
		&account.TotalLikes,
		&account.ContentCount,
		&account.AverageEngagement,
		&account.State,
		&account.CreatedAt,
		&account.UpdatedAt,
		&lastSynced,
	)
	if err != nil {
		return nil, err
	}

	if lastSynced.Valid {
		account.LastSyncedAt = &lastSynced.Time
	}
	return &account, nil
}
