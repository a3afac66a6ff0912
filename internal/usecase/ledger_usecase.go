package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// LedgerUseCase is the single write path for ledger transactions. Every
// entry, whatever its source, goes through here so the balance invariants
// hold uniformly.
type LedgerUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	txnRepo      TransactionRepository
	snapshotRepo SnapshotRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	snapshotRepo SnapshotRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		snapshotRepo: snapshotRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	AccountID    string
	Type         domain.EntryType
	Amount       decimal.Decimal
	Date         time.Time
	Category     string
	PartyID      string
	Counterparty string
	Notes        string
	Source       domain.TxSource
}

// CreateTransaction appends one ledger entry. The target account row is
// locked for the duration of the write, which serializes concurrent entries
// per account and keeps the cached balance free of lost updates.
func (uc *LedgerUseCase) CreateTransaction(ctx context.Context, scope domain.Scope, input CreateTransactionInput) (*domain.Transaction, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	source := input.Source
	if source == "" {
		source = domain.SourceManual
	}

	txn := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		OwnerID:      scope.OwnerID,
		OrgID:        scope.OrgID,
		AccountID:    input.AccountID,
		Type:         input.Type,
		Amount:       input.Amount,
		Date:         input.Date.UTC(),
		Category:     input.Category,
		PartyID:      input.PartyID,
		Counterparty: input.Counterparty,
		Notes:        input.Notes,
		State:        domain.TxActive,
		Source:       source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, scope, input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.CanWrite(); err != nil {
		return nil, &domain.ValidationError{Field: "account_id", Message: err.Error()}
	}

	newBalance := account.ApplyEntry(txn.Type, txn.Amount)
	txn.BalanceAfter = newBalance
	txn.AccountVersion = account.Version + 1

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1, now); err != nil {
		return nil, err
	}

	if err := uc.markSnapshotsStale(ctx, tx, account.ID, txn.Date); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.WithLabelValues(string(txn.Source)).Inc()
	}

	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.txnRepo.GetByID(ctx, scope, id)
}

// ListTransactions lists transactions with filters.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, scope domain.Scope, filter TransactionFilter) ([]*domain.Transaction, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return uc.txnRepo.List(ctx, scope, filter)
}

// UpdateTransactionInput holds the fields a persisted transaction may
// change. Amount, type and account are immutable: monetary corrections go
// through VoidTransaction plus a new entry.
type UpdateTransactionInput struct {
	Date         *time.Time
	Category     *string
	PartyID      *string
	Counterparty *string
	Notes        *string
}

// UpdateTransaction edits the descriptive fields of an active transaction.
// A date change can move the entry across snapshot periods, so both the old
// and new periods are invalidated.
func (uc *LedgerUseCase) UpdateTransaction(ctx context.Context, scope domain.Scope, id string, input UpdateTransactionInput) (*domain.Transaction, error) {
	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	txn, err := uc.txnRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if !txn.IsActive() {
		return nil, &domain.ValidationError{Field: "id", Message: "cannot edit a voided transaction"}
	}

	oldDate := txn.Date
	if input.Date != nil {
		txn.Date = input.Date.UTC()
	}
	if input.Category != nil {
		txn.Category = *input.Category
	}
	if input.PartyID != nil {
		txn.PartyID = *input.PartyID
	}
	if input.Counterparty != nil {
		txn.Counterparty = *input.Counterparty
	}
	if input.Notes != nil {
		txn.Notes = *input.Notes
	}
	txn.UpdatedAt = time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
		return nil, err
	}

	if !txn.Date.Equal(oldDate) {
		first := oldDate
		if txn.Date.Before(first) {
			first = txn.Date
		}

		if err := uc.markSnapshotsStale(ctx, tx, txn.AccountID, first); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// VoidTransaction soft-deletes a transaction and rebuilds the cached
// account balance by replaying the remaining active entries forward from
// the most recent unaffected snapshot. It never subtracts in place: voids
// can arrive out of order and a naive running total would drift.
func (uc *LedgerUseCase) VoidTransaction(ctx context.Context, scope domain.Scope, id string) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return err
	}

	txn, err := uc.txnRepo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}

	if !txn.IsActive() {
		return &domain.ConflictError{Message: "transaction is already voided"}
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, scope, txn.AccountID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := uc.txnRepo.SetState(ctx, tx, txn.ID, domain.TxDeleted, now); err != nil {
		return err
	}

	newBalance, err := uc.replayBalance(ctx, tx, account.ID, txn.Date)
	if err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1, now); err != nil {
		return err
	}

	if err := uc.markSnapshotsStale(ctx, tx, account.ID, txn.Date); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsVoided.Inc()
	}

	return nil
}

// replayBalance recomputes an account balance from the most recent monthly
// snapshot unaffected by a change at the given date, plus the active
// transactions after it. Runs inside the caller's transaction so the
// account row lock is still held.
func (uc *LedgerUseCase) replayBalance(ctx context.Context, tx Transaction, accountID string, changedAt time.Time) (decimal.Decimal, error) {
	affected := domain.PeriodStart(domain.GranularityMonth, changedAt)
	base, err := uc.snapshotRepo.LatestBefore(ctx, accountID, domain.GranularityMonth, affected)
	if err != nil {
		return decimal.Zero, err
	}

	opening := decimal.Zero
	var from time.Time
	if base != nil {
		opening = base.ClosingBalance
		from = domain.NextPeriod(domain.GranularityMonth, base.PeriodStart)
	}

	debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, tx, accountID, from, time.Time{})
	if err != nil {
		return decimal.Zero, err
	}

	return opening.Add(credit).Sub(debit), nil
}

// markSnapshotsStale invalidates every snapshot whose period contains or
// follows the given date, for both granularities.
func (uc *LedgerUseCase) markSnapshotsStale(ctx context.Context, tx Transaction, accountID string, date time.Time) error {
	for _, g := range []domain.Granularity{domain.GranularityDay, domain.GranularityMonth} {
		if err := uc.snapshotRepo.MarkStaleFrom(ctx, tx, accountID, g, domain.PeriodStart(g, date)); err != nil {
			return err
		}
	}

	return nil
}
