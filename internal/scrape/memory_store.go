package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/pulsehq/pulse/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local experiments.
// WithTx offers no rollback; callers that need transactional assertions
// belong against the Postgres store.
type MemoryStore struct {
	mu sync.Mutex

	accounts         map[int64]*models.Account
	content          map[int64]*models.Content
	accountSnapshots []*models.AccountSnapshot
	contentSnapshots []*models.ContentSnapshot
	alertRecords     []*models.AlertRecord

	nextAccountID int64
	nextContentID int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*models.Account),
		content:  make(map[int64]*models.Content),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *MemoryStore) GetAccountByHandle(ctx context.Context, platform models.Platform, handle string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Platform == platform && account.Handle == handle {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (s *MemoryStore) ListActiveAccounts(ctx context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*models.Account
	for _, account := range s.accounts {
		if account.Active() {
			copied := *account
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	account.ID = s.nextAccountID
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.UpdatedAt = time.Now().UTC()
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *MemoryStore) SetAccountState(ctx context.Context, id int64, state models.AccountState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.State == state {
		return false, nil
	}
	account.State = state
	account.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) AddAccountSnapshot(ctx context.Context, snapshot *models.AccountSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.accountSnapshots = append(s.accountSnapshots, &copied)
	return nil
}

func (s *MemoryStore) GetContent(ctx context.Context, platform models.Platform, platformContentID string) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, content := range s.content {
		if content.Platform == platform && content.PlatformContentID == platformContentID {
			copied := *content
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateContent(ctx context.Context, content *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextContentID++
	content.ID = s.nextContentID
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now
	copied := *content
	s.content[content.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateContentMetrics(ctx context.Context, content *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.content[content.ID]
	if !ok {
		copied := *content
		s.content[content.ID] = &copied
		return nil
	}
	stored.Caption = content.Caption
	stored.ViewCount = content.ViewCount
	stored.LikeCount = content.LikeCount
	stored.CommentCount = content.CommentCount
	stored.ShareCount = content.ShareCount
	stored.IsViral = content.IsViral
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) MarkContentAlerted(ctx context.Context, contentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content, ok := s.content[contentID]; ok {
		content.AlertSent = true
		content.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *MemoryStore) AddContentSnapshot(ctx context.Context, snapshot *models.ContentSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.contentSnapshots = append(s.contentSnapshots, &copied)
	return nil
}

func (s *MemoryStore) AddAlertRecord(ctx context.Context, record *models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.alertRecords = append(s.alertRecords, &copied)
	return nil
}

// ContentSnapshots returns a copy of all recorded content snapshots.
func (s *MemoryStore) ContentSnapshots() []*models.ContentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ContentSnapshot, len(s.contentSnapshots))
	copy(out, s.contentSnapshots)
	return out
}

// AlertRecords returns a copy of all recorded alert rows.
func (s *MemoryStore) AlertRecords() []*models.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AlertRecord, len(s.alertRecords))
	copy(out, s.alertRecords)
	return out
}

// AccountSnapshots returns a copy of all recorded account snapshots.
func (s *MemoryStore) AccountSnapshots() []*models.AccountSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AccountSnapshot, len(s.accountSnapshots))
	copy(out, s.accountSnapshots)
	return out
}
