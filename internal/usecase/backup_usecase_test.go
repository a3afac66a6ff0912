package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
	"github.com/okiba/bookd/internal/usecase/mocks"
)

type backupFixture struct {
	uc           *usecase.BackupUseCase
	accRepo      *mocks.MockAccountRepository
	txnRepo      *mocks.MockTransactionRepository
	transferRepo *mocks.MockTransferRepository
	categoryRepo *mocks.MockCategoryRepository
}

func newBackupFixture() *backupFixture {
	f := &backupFixture{
		accRepo:      mocks.NewMockAccountRepository(),
		txnRepo:      mocks.NewMockTransactionRepository(),
		transferRepo: mocks.NewMockTransferRepository(),
		categoryRepo: mocks.NewMockCategoryRepository(),
	}
	f.uc = usecase.NewBackupUseCase(
		f.accRepo, f.txnRepo, f.transferRepo,
		mocks.NewMockSnapshotRepository(), f.categoryRepo,
		mocks.NewMockTransactionManager(), zerolog.Nop(),
	)
	return f
}

func (f *backupFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	seedAccount(t, f.accRepo, "acc-1")
	seedAccount(t, f.accRepo, "acc-2")
	seedTransaction(t, f.txnRepo, "txn-1", "acc-1", domain.EntryCredit, 100, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	seedTransaction(t, f.txnRepo, "txn-2", "acc-2", domain.EntryDebit, 30, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))

	err := f.transferRepo.Create(ctx, nil, &domain.Transfer{
		ID:            "transfer-1",
		OwnerID:       "owner-1",
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	err = f.categoryRepo.Create(ctx, &domain.Category{ID: "cat-1", OwnerID: "owner-1", Name: "Rent", Kind: domain.CategoryExpense})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
}

func TestBackupUseCase_ExportImportRoundTrip(t *testing.T) {
	source := newBackupFixture()
	source.seed(t)
	ctx := context.Background()

	backup, err := source.uc.Export(ctx, testScope())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if backup.Version != domain.BackupVersion {
		t.Errorf("version = %d, want %d", backup.Version, domain.BackupVersion)
	}
	if backup.Counts["accounts"] != 2 || backup.Counts["transactions"] != 2 {
		t.Errorf("counts = %v, want 2 accounts and 2 transactions", backup.Counts)
	}
	// The transfer touches both accounts but must export once.
	if len(backup.Transfers) != 1 {
		t.Errorf("transfers = %d, want 1", len(backup.Transfers))
	}

	target := newBackupFixture()
	if err := target.uc.Import(ctx, testScope(), backup); err != nil {
		t.Fatalf("import: %v", err)
	}

	restored, err := target.accRepo.List(ctx, testScope(), 0, 0)
	if err != nil {
		t.Fatalf("list restored accounts: %v", err)
	}
	if len(restored) != 2 {
		t.Errorf("restored %d accounts, want 2", len(restored))
	}

	txn, err := target.txnRepo.GetByID(ctx, testScope(), "txn-1")
	if err != nil {
		t.Fatalf("restored transaction missing: %v", err)
	}
	if !txn.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("restored amount = %s, want 100", txn.Amount)
	}

	if _, err := target.categoryRepo.GetByID(ctx, testScope(), "cat-1"); err != nil {
		t.Errorf("restored category missing: %v", err)
	}
}

func TestBackupUseCase_ImportRejectsBadBundle(t *testing.T) {
	target := newBackupFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		backup *domain.Backup
	}{
		{
			name:   "wrong version",
			backup: &domain.Backup{Version: 99, Accounts: []*domain.Account{}},
		},
		{
			name:   "missing accounts array",
			backup: &domain.Backup{Version: domain.BackupVersion},
		},
		{
			name: "malformed transaction",
			backup: &domain.Backup{
				Version:      domain.BackupVersion,
				Accounts:     []*domain.Account{{ID: "acc-1"}},
				Transactions: []*domain.Transaction{{ID: ""}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := target.uc.Import(ctx, testScope(), tt.backup); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestBackupUseCase_RequiresCapability(t *testing.T) {
	f := newBackupFixture()
	scope := domain.Scope{OwnerID: "owner-1", Caps: domain.NewCapabilitySet(domain.CapLedgerRead)}

	if _, err := f.uc.Export(context.Background(), scope); err == nil {
		t.Error("expected export to require the backup capability")
	}
	if err := f.uc.Import(context.Background(), scope, &domain.Backup{Version: domain.BackupVersion, Accounts: []*domain.Account{}}); err == nil {
		t.Error("expected import to require the backup capability")
	}
}
