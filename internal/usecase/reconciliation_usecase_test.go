package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
	"github.com/okiba/bookd/internal/usecase/mocks"
)

func newReconciliationFixture() (*usecase.ReconciliationUseCase, *mocks.MockAccountRepository, *mocks.MockTransactionRepository) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	uc := usecase.NewReconciliationUseCase(accRepo, txnRepo, mocks.NewMockTransactionManager(), zerolog.Nop(), nil)
	return uc, accRepo, txnRepo
}

func TestReconciliationUseCase_CleanAccount(t *testing.T) {
	uc, accRepo, txnRepo := newReconciliationFixture()
	account := seedAccount(t, accRepo, "acc-1")
	account.Balance = decimal.NewFromInt(70)

	seedTransaction(t, txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	seedTransaction(t, txnRepo, "txn-2", "acc-1", domain.EntryDebit, 30, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	result, err := uc.ReconcileAccount(context.Background(), testScope(), "acc-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !result.Reconciled || result.Corrected || result.Frozen {
		t.Errorf("result = %+v, want clean reconciliation", result)
	}
	if !result.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", result.Difference)
	}
}

func TestReconciliationUseCase_DriftWithinToleranceCorrected(t *testing.T) {
	uc, accRepo, txnRepo := newReconciliationFixture()
	account := seedAccount(t, accRepo, "acc-1")
	account.Balance = decimal.RequireFromString("100.01")

	seedTransaction(t, txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	result, err := uc.ReconcileAccount(context.Background(), testScope(), "acc-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !result.Reconciled || !result.Corrected {
		t.Errorf("result = %+v, want corrected reconciliation", result)
	}
	if want := decimal.NewFromInt(100); !account.Balance.Equal(want) {
		t.Errorf("balance = %s, want corrected %s", account.Balance, want)
	}
	if account.Frozen {
		t.Error("account frozen for in-tolerance drift")
	}
}

func TestReconciliationUseCase_DiscrepancyFreezesAccount(t *testing.T) {
	uc, accRepo, txnRepo := newReconciliationFixture()
	account := seedAccount(t, accRepo, "acc-1")
	account.Balance = decimal.NewFromInt(150)

	seedTransaction(t, txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	result, err := uc.ReconcileAccount(context.Background(), testScope(), "acc-1")
	var recErr *domain.ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("error = %v, want ReconciliationError", err)
	}
	if want := decimal.NewFromInt(50); !recErr.Difference().Equal(want) {
		t.Errorf("difference = %s, want %s", recErr.Difference(), want)
	}
	if !result.Frozen {
		t.Error("result does not report the freeze")
	}
	if !account.Frozen {
		t.Fatal("account not frozen after discrepancy")
	}

	// The stored balance is evidence; it must not be silently rewritten.
	if want := decimal.NewFromInt(150); !account.Balance.Equal(want) {
		t.Errorf("balance = %s, want untouched %s", account.Balance, want)
	}

	// Writes are fenced while frozen.
	snapRepo := mocks.NewMockSnapshotRepository()
	ledger := usecase.NewLedgerUseCase(mocks.NewMockTransactionManager(), accRepo, txnRepo, snapRepo, mocks.NewMockIDGenerator(), nil)
	if _, err := ledger.CreateTransaction(context.Background(), testScope(), usecase.CreateTransactionInput{
		AccountID: "acc-1",
		Type:      domain.EntryCredit,
		Amount:    decimal.NewFromInt(10),
		Date:      time.Now(),
	}); err == nil {
		t.Error("expected write to frozen account to fail")
	}
}

func TestReconciliationUseCase_Resolve(t *testing.T) {
	uc, accRepo, txnRepo := newReconciliationFixture()
	account := seedAccount(t, accRepo, "acc-1")
	account.Balance = decimal.NewFromInt(150)
	account.Frozen = true

	seedTransaction(t, txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	result, err := uc.Resolve(context.Background(), testScope(), "acc-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !result.Reconciled || !result.Corrected {
		t.Errorf("result = %+v, want corrected resolution", result)
	}
	if want := decimal.NewFromInt(100); !account.Balance.Equal(want) {
		t.Errorf("balance = %s, want recomputed %s", account.Balance, want)
	}
	if account.Frozen {
		t.Error("account still frozen after resolve")
	}
}

func TestReconciliationUseCase_ReconcileAll(t *testing.T) {
	uc, accRepo, txnRepo := newReconciliationFixture()

	clean := seedAccount(t, accRepo, "acc-1")
	clean.Balance = decimal.NewFromInt(100)
	seedTransaction(t, txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	broken := seedAccount(t, accRepo, "acc-2")
	broken.Balance = decimal.NewFromInt(999)
	seedTransaction(t, txnRepo, "txn-2", "acc-2", domain.EntryCredit, 40, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))

	report, err := uc.ReconcileAll(context.Background(), testScope())
	if err != nil {
		t.Fatalf("reconcile all: %v", err)
	}

	if report.TotalAccounts != 2 {
		t.Errorf("total = %d, want 2", report.TotalAccounts)
	}
	if report.ReconciledAccounts != 1 {
		t.Errorf("reconciled = %d, want 1", report.ReconciledAccounts)
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("discrepancies = %d, want 1", len(report.Discrepancies))
	}
	if report.Discrepancies[0].AccountID != "acc-2" {
		t.Errorf("discrepancy on %s, want acc-2", report.Discrepancies[0].AccountID)
	}
	if !broken.Frozen {
		t.Error("broken account not frozen by the sweep")
	}
}
