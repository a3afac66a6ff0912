package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	From      *time.Time
	To        *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	AccountID string
	Type      domain.EntryType
	Query     string
	Limit     int
	Offset    int
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Type    domain.InvoiceType
	Status  domain.InvoiceStatus
	PartyID string
	Limit   int
	Offset  int
}

// AccountSummary is an account with its activity rollup.
type AccountSummary struct {
	Account          *domain.Account
	TotalDebit       decimal.Decimal
	TotalCredit      decimal.Decimal
	TransactionCount int64
	LastActivity     *time.Time
}

// StaleRange identifies the earliest stale snapshot period of one account,
// from which the roller must recompute forward.
type StaleRange struct {
	OwnerID     string
	AccountID   string
	Granularity domain.Granularity
	From        time.Time
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, scope domain.Scope, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, scope domain.Scope, ids []string) ([]*domain.Account, error)
	GetByName(ctx context.Context, scope domain.Scope, name string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	SetFrozen(ctx context.Context, id string, frozen bool, updatedAt time.Time) error
	List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error)
	ListSummaries(ctx context.Context, scope domain.Scope) ([]*AccountSummary, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	SetState(ctx context.Context, tx Transaction, id string, state domain.TxState, updatedAt time.Time) error
	List(ctx context.Context, scope domain.Scope, filter TransactionFilter) ([]*domain.Transaction, error)
	// SumActiveBetween returns debit and credit totals of active transactions
	// with from <= date < to. A zero `to` means no upper bound.
	SumActiveBetween(ctx context.Context, tx Transaction, accountID string, from, to time.Time) (debit, credit decimal.Decimal, err error)
	// ExistsActiveMatch reports whether an active transaction with the same
	// account, type, amount and calendar date already exists.
	ExistsActiveMatch(ctx context.Context, accountID string, typ domain.EntryType, amount decimal.Decimal, date time.Time) (bool, error)
	LatestActiveDate(ctx context.Context, accountID string) (*time.Time, error)
	EarliestActiveDate(ctx context.Context, accountID string) (*time.Time, error)
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transfer, error)
	// GetByClientRequestID returns nil, nil when no transfer carries the key.
	GetByClientRequestID(ctx context.Context, scope domain.Scope, clientRequestID string) (*domain.Transfer, error)
	ListByAccount(ctx context.Context, scope domain.Scope, accountID string, limit, offset int) ([]*domain.Transfer, error)
}

// SnapshotRepository defines data access for balance snapshots.
type SnapshotRepository interface {
	// Upsert writes the snapshot keyed by (owner, account, granularity,
	// period_start), replacing any previous row for the period.
	Upsert(ctx context.Context, snapshot *domain.BalanceSnapshot) error
	Get(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, periodStart time.Time) (*domain.BalanceSnapshot, error)
	// LatestBefore returns the most recent non-stale snapshot with
	// period_start < before, or nil when none exists.
	LatestBefore(ctx context.Context, accountID string, g domain.Granularity, before time.Time) (*domain.BalanceSnapshot, error)
	// LatestPeriod returns the period start of the newest snapshot row for
	// the account, stale or not, or nil when none exists.
	LatestPeriod(ctx context.Context, accountID string, g domain.Granularity) (*time.Time, error)
	MarkStaleFrom(ctx context.Context, tx Transaction, accountID string, g domain.Granularity, from time.Time) error
	ListStale(ctx context.Context, limit int) ([]*StaleRange, error)
	List(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, limit, offset int) ([]*domain.BalanceSnapshot, error)
}

// PartyRepository defines data access for customers and suppliers.
type PartyRepository interface {
	Create(ctx context.Context, party *domain.Party) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Party, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, scope domain.Scope, id string) (*domain.Party, error)
	Update(ctx context.Context, party *domain.Party) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, current decimal.Decimal, updatedAt time.Time) error
	Deactivate(ctx context.Context, scope domain.Scope, id string, updatedAt time.Time) error
	List(ctx context.Context, scope domain.Scope, kind domain.PartyKind, limit, offset int) ([]*domain.Party, error)
}

// PartyEntryRepository defines data access for party ledger entries.
type PartyEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.PartyEntry) error
	// ListByParty returns entries ordered by (date, id) ascending.
	ListByParty(ctx context.Context, partyID string, limit, offset int) ([]*domain.PartyEntry, error)
	// SumBefore returns the signed sum (debit - credit) of all entries
	// strictly before the given offset in (date, id) order.
	SumBefore(ctx context.Context, partyID string, offset int) (decimal.Decimal, error)
	Totals(ctx context.Context, partyID string) (debit, credit decimal.Decimal, count int64, err error)
}

// InvoiceRepository defines data access for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, scope domain.Scope, id string) (*domain.Invoice, error)
	Update(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	Delete(ctx context.Context, scope domain.Scope, id string) error
	List(ctx context.Context, scope domain.Scope, filter InvoiceFilter) ([]*domain.Invoice, error)
	// ListDueForOverdue returns pending or partial invoices whose due date
	// has passed.
	ListDueForOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Invoice, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Category, error)
	List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Category, error)
	Delete(ctx context.Context, scope domain.Scope, id string) error
}

// ImportRepository defines data access for import records and their items.
type ImportRepository interface {
	CreateRecord(ctx context.Context, record *domain.ImportRecord) error
	GetRecord(ctx context.Context, scope domain.Scope, id string) (*domain.ImportRecord, error)
	UpdateRecord(ctx context.Context, record *domain.ImportRecord) error
	DeleteRecord(ctx context.Context, scope domain.Scope, id string) error
	ListRecords(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.ImportRecord, error)
	CreateItems(ctx context.Context, items []*domain.ImportItem) error
	GetItem(ctx context.Context, importID, itemID string) (*domain.ImportItem, error)
	UpdateItem(ctx context.Context, item *domain.ImportItem) error
	ListItems(ctx context.Context, importID string) ([]*domain.ImportItem, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
