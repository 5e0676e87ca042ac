package scrape

import (
	"context"

	"github.com/pulsehq/pulse/internal/models"
)

// Store is the persistence boundary of the sync engine. The scraper is
// the only writer of business fields; one logical unit of work (an add,
// or one full account update) runs inside a single WithTx call and
// commits atomically.
//
// Get methods return (nil, nil) when the row is absent.
type Store interface {
	// WithTx runs fn inside a transaction. fn receives a Store bound to
	// that transaction; returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(Store) error) error

	GetAccountByHandle(ctx context.Context, platform models.Platform, handle string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	ListActiveAccounts(ctx context.Context) ([]*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccount(ctx context.Context, account *models.Account) error
	// SetAccountState flips the soft-delete state and reports whether a
	// row changed.
	SetAccountState(ctx context.Context, id int64, state models.AccountState) (bool, error)

	AddAccountSnapshot(ctx context.Context, snapshot *models.AccountSnapshot) error

	GetContent(ctx context.Context, platform models.Platform, platformContentID string) (*models.Content, error)
	CreateContent(ctx context.Context, content *models.Content) error
	UpdateContentMetrics(ctx context.Context, content *models.Content) error
	// MarkContentAlerted sets alert_sent; the flag never reverts.
	MarkContentAlerted(ctx context.Context, contentID int64) error

	AddContentSnapshot(ctx context.Context, snapshot *models.ContentSnapshot) error

	AddAlertRecord(ctx context.Context, record *models.AlertRecord) error
}
