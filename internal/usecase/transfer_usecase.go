package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// TransferUseCase handles atomic two-leg transfers between accounts.
type TransferUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	transferRepo TransferRepository
	txnRepo      TransactionRepository
	snapshotRepo SnapshotRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transferRepo TransferRepository,
	txnRepo TransactionRepository,
	snapshotRepo SnapshotRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		txnRepo:      txnRepo,
		snapshotRepo: snapshotRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// CreateTransferInput represents input for creating a transfer.
type CreateTransferInput struct {
	FromAccountID   string
	ToAccountID     string
	Amount          decimal.Decimal
	Date            time.Time
	ClientRequestID string
	Metadata        map[string]any
}

// CreateTransfer atomically creates the debit and credit legs of a transfer.
// When a ClientRequestID is supplied and a transfer already carries it for
// this owner, the existing transfer is returned unchanged, so retries are
// safe to repeat.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, scope domain.Scope, input CreateTransferInput) (*domain.Transfer, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	if input.FromAccountID == input.ToAccountID {
		return nil, &domain.ConflictError{Message: "cannot transfer to the same account"}
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.ClientRequestID != "" {
		existing, err := uc.transferRepo.GetByClientRequestID(ctx, scope, input.ClientRequestID)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			return existing, nil
		}
	}

	transfer, err := uc.create(ctx, scope, input)
	if err == nil {
		if uc.metrics != nil {
			uc.metrics.TransfersCreated.Inc()
			amount, _ := transfer.Amount.Float64()
			uc.metrics.TransferAmount.Observe(amount)
		}

		return transfer, nil
	}

	// A concurrent retry may have won the unique (owner, client_request_id)
	// race between our lookup and insert. Resolve to the winner.
	var conflict *domain.ConflictError
	if input.ClientRequestID != "" && errors.As(err, &conflict) {
		existing, lookupErr := uc.transferRepo.GetByClientRequestID(ctx, scope, input.ClientRequestID)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
	}

	return nil, err
}

func (uc *TransferUseCase) create(ctx context.Context, scope domain.Scope, input CreateTransferInput) (*domain.Transfer, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock both accounts in sorted id order to avoid deadlock with a
	// concurrent transfer locking the same pair the other way around.
	ids := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, scope, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	from := byID[input.FromAccountID]
	to := byID[input.ToAccountID]
	if from == nil {
		return nil, &domain.NotFoundError{Resource: "account", ID: input.FromAccountID}
	}
	if to == nil {
		return nil, &domain.NotFoundError{Resource: "account", ID: input.ToAccountID}
	}

	for _, a := range []*domain.Account{from, to} {
		if err := a.CanWrite(); err != nil {
			return nil, &domain.ValidationError{Field: "account_id", Message: a.ID + ": " + err.Error()}
		}
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	date = date.UTC()

	transfer := &domain.Transfer{
		ID:              uc.idGen.Generate(),
		OwnerID:         scope.OwnerID,
		OrgID:           scope.OrgID,
		FromAccountID:   from.ID,
		ToAccountID:     to.ID,
		Amount:          input.Amount,
		Date:            date,
		ClientRequestID: input.ClientRequestID,
		Metadata:        input.Metadata,
		CreatedAt:       now,
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	debitLeg, err := uc.appendLeg(ctx, tx, scope, from, domain.EntryDebit, input.Amount, date, transfer.ID, now)
	if err != nil {
		return nil, err
	}

	creditLeg, err := uc.appendLeg(ctx, tx, scope, to, domain.EntryCredit, input.Amount, date, transfer.ID, now)
	if err != nil {
		return nil, err
	}

	transfer.DebitTransactionID = debitLeg.ID
	transfer.CreditTransactionID = creditLeg.ID

	if err := uc.transferRepo.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// appendLeg writes one leg of a transfer against a locked account.
func (uc *TransferUseCase) appendLeg(
	ctx context.Context,
	tx Transaction,
	scope domain.Scope,
	account *domain.Account,
	typ domain.EntryType,
	amount decimal.Decimal,
	date time.Time,
	transferID string,
	now time.Time,
) (*domain.Transaction, error) {
	newBalance := account.ApplyEntry(typ, amount)

	leg := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		OwnerID:        scope.OwnerID,
		OrgID:          scope.OrgID,
		AccountID:      account.ID,
		Type:           typ,
		Amount:         amount,
		Date:           date,
		Counterparty:   transferID,
		BalanceAfter:   newBalance,
		AccountVersion: account.Version + 1,
		State:          domain.TxActive,
		Source:         domain.SourceTransfer,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.txnRepo.Create(ctx, tx, leg); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version+1, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.Version++

	for _, g := range []domain.Granularity{domain.GranularityDay, domain.GranularityMonth} {
		if err := uc.snapshotRepo.MarkStaleFrom(ctx, tx, account.ID, g, domain.PeriodStart(g, date)); err != nil {
			return nil, err
		}
	}

	return leg, nil
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, scope domain.Scope, id string) (*domain.Transfer, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.transferRepo.GetByID(ctx, scope, id)
}

// ListTransfersByAccount lists transfers touching an account.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, scope domain.Scope, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.transferRepo.ListByAccount(ctx, scope, accountID, clampLimit(limit), offset)
}
