package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// ReconciliationUseCase checks stored account balances against the fold of
// their active transactions.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	txManager   TransactionManager
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	txManager TransactionManager,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		txManager:   txManager,
		logger:      logger,
		metrics:     metrics,
	}
}

// ReconciliationResult is the outcome of one account check.
type ReconciliationResult struct {
	AccountID       string
	StoredBalance   decimal.Decimal
	ComputedBalance decimal.Decimal
	Difference      decimal.Decimal
	Reconciled      bool
	// Corrected is true when the stored balance drifted within tolerance
	// and was overwritten with the computed value.
	Corrected bool
	// Frozen is true when the difference exceeded tolerance and the account
	// was fenced off from writes.
	Frozen    bool
	CheckedAt time.Time
}

// ReconcileAccount recomputes the account balance from its transaction
// history and compares it with the stored value. Drift within tolerance is
// corrected in place; anything larger freezes the account and returns a
// ReconciliationError so the discrepancy gets human attention.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, scope domain.Scope, accountID string) (*ReconciliationResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		AccountID: accountID,
		CheckedAt: time.Now().UTC(),
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationChecks.Inc()
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, scope, accountID)
	if err != nil {
		return nil, err
	}

	debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, tx, accountID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	computed := credit.Sub(debit)
	result.StoredBalance = account.Balance
	result.ComputedBalance = computed
	result.Difference = account.Balance.Sub(computed)

	if result.Difference.IsZero() {
		result.Reconciled = true
		return result, tx.Commit(ctx)
	}

	if domain.WithinTolerance(account.Balance, computed) {
		now := time.Now().UTC()
		if err := uc.accountRepo.UpdateBalance(ctx, tx, accountID, computed, account.Version+1, now); err != nil {
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit transaction: %w", err)
		}

		uc.logger.Warn().
			Str("account_id", accountID).
			Str("stored", result.StoredBalance.String()).
			Str("computed", computed.String()).
			Msg("balance drift within tolerance, corrected")

		if uc.metrics != nil {
			uc.metrics.BalancesCorrected.Inc()
		}

		result.Reconciled = true
		result.Corrected = true
		return result, nil
	}

	if err := tx.Rollback(ctx); err != nil {
		uc.logger.Error().Err(err).Msg("rollback after reconciliation mismatch")
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.SetFrozen(ctx, accountID, true, now); err != nil {
		return nil, err
	}

	uc.logger.Error().
		Str("account_id", accountID).
		Str("stored", result.StoredBalance.String()).
		Str("computed", computed.String()).
		Msg("balance discrepancy beyond tolerance, account frozen")

	if uc.metrics != nil {
		uc.metrics.AccountsFrozen.Inc()
	}

	result.Frozen = true
	return result, &domain.ReconciliationError{
		AccountID: accountID,
		Stored:    result.StoredBalance,
		Computed:  computed,
	}
}

// ReconciliationReport summarizes a run over every account in scope.
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	CorrectedAccounts  int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// ReconcileAll checks every account in scope. A discrepancy on one account
// does not stop the run; it lands in the report's Discrepancies list.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context, scope domain.Scope) (*ReconciliationReport, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	report := &ReconciliationReport{CheckedAt: time.Now().UTC()}

	offset := 0
	for {
		accounts, err := uc.accountRepo.List(ctx, scope, backupPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, scope, account.ID)
			if err != nil {
				var recErr *domain.ReconciliationError
				if !errors.As(err, &recErr) {
					return nil, fmt.Errorf("reconcile account %s: %w", account.ID, err)
				}
			}

			report.TotalAccounts++
			switch {
			case result.Reconciled && result.Corrected:
				report.ReconciledAccounts++
				report.CorrectedAccounts++
			case result.Reconciled:
				report.ReconciledAccounts++
			default:
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < backupPageSize {
			break
		}
		offset += backupPageSize
	}

	return report, nil
}

// Resolve rewrites a frozen account's stored balance from its transaction
// history and lifts the freeze. This is the manual recovery step after a
// discrepancy has been investigated.
func (uc *ReconciliationUseCase) Resolve(ctx context.Context, scope domain.Scope, accountID string) (*ReconciliationResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, scope, accountID)
	if err != nil {
		return nil, err
	}

	debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, tx, accountID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	computed := credit.Sub(debit)
	stored := account.Balance
	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateBalance(ctx, tx, accountID, computed, account.Version+1, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if err := uc.accountRepo.SetFrozen(ctx, accountID, false, now); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", accountID).
		Str("balance", computed.String()).
		Msg("account reconciliation resolved, unfrozen")

	return &ReconciliationResult{
		AccountID:       accountID,
		StoredBalance:   computed,
		ComputedBalance: computed,
		Difference:      decimal.Zero,
		Reconciled:      true,
		Corrected:       !stored.Equal(computed),
		CheckedAt:       now,
	}, nil
}
