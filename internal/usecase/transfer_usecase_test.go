package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
	"github.com/okiba/bookd/internal/usecase/mocks"
)

func newTransferFixture() (*usecase.TransferUseCase, *mocks.MockAccountRepository, *mocks.MockTransferRepository, *mocks.MockTransactionRepository) {
	accRepo := mocks.NewMockAccountRepository()
	transferRepo := mocks.NewMockTransferRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	snapRepo := mocks.NewMockSnapshotRepository()
	uc := usecase.NewTransferUseCase(mocks.NewMockTransactionManager(), accRepo, transferRepo, txnRepo, snapRepo, mocks.NewMockIDGenerator(), nil)
	return uc, accRepo, transferRepo, txnRepo
}

func countTransactions(t *testing.T, txnRepo *mocks.MockTransactionRepository, accountID string) int {
	t.Helper()
	txns, err := txnRepo.List(context.Background(), testScope(), usecase.TransactionFilter{AccountID: accountID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return len(txns)
}

func TestTransferUseCase_CreateTransfer(t *testing.T) {
	uc, accRepo, _, txnRepo := newTransferFixture()
	from := seedAccount(t, accRepo, "acc-1")
	to := seedAccount(t, accRepo, "acc-2")
	from.Balance = decimal.NewFromInt(500)

	transfer, err := uc.CreateTransfer(context.Background(), testScope(), usecase.CreateTransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
		Date:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if want := decimal.NewFromInt(400); !from.Balance.Equal(want) {
		t.Errorf("from balance = %s, want %s", from.Balance, want)
	}
	if want := decimal.NewFromInt(100); !to.Balance.Equal(want) {
		t.Errorf("to balance = %s, want %s", to.Balance, want)
	}

	if transfer.DebitTransactionID == "" || transfer.CreditTransactionID == "" {
		t.Fatal("transfer missing leg transaction ids")
	}

	debitLeg, err := txnRepo.GetByID(context.Background(), testScope(), transfer.DebitTransactionID)
	if err != nil {
		t.Fatalf("get debit leg: %v", err)
	}
	if debitLeg.Source != domain.SourceTransfer {
		t.Errorf("debit leg source = %s, want %s", debitLeg.Source, domain.SourceTransfer)
	}
	if debitLeg.AccountID != "acc-1" || debitLeg.Type != domain.EntryDebit {
		t.Errorf("debit leg on %s/%s, want acc-1/debit", debitLeg.AccountID, debitLeg.Type)
	}
}

func TestTransferUseCase_IdempotentRetry(t *testing.T) {
	uc, accRepo, _, txnRepo := newTransferFixture()
	from := seedAccount(t, accRepo, "acc-1")
	seedAccount(t, accRepo, "acc-2")
	from.Balance = decimal.NewFromInt(500)

	input := usecase.CreateTransferInput{
		FromAccountID:   "acc-1",
		ToAccountID:     "acc-2",
		Amount:          decimal.NewFromInt(100),
		ClientRequestID: "req-42",
	}

	first, err := uc.CreateTransfer(context.Background(), testScope(), input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	second, err := uc.CreateTransfer(context.Background(), testScope(), input)
	if err != nil {
		t.Fatalf("retried create: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("retry created a new transfer: %s vs %s", first.ID, second.ID)
	}

	// Exactly one leg per account regardless of retries.
	if n := countTransactions(t, txnRepo, "acc-1"); n != 1 {
		t.Errorf("acc-1 has %d transactions, want 1", n)
	}
	if n := countTransactions(t, txnRepo, "acc-2"); n != 1 {
		t.Errorf("acc-2 has %d transactions, want 1", n)
	}
	if want := decimal.NewFromInt(400); !from.Balance.Equal(want) {
		t.Errorf("from balance = %s, want %s", from.Balance, want)
	}
}

func TestTransferUseCase_RaceResolvesToWinner(t *testing.T) {
	uc, accRepo, transferRepo, _ := newTransferFixture()
	from := seedAccount(t, accRepo, "acc-1")
	seedAccount(t, accRepo, "acc-2")
	from.Balance = decimal.NewFromInt(500)

	// Simulate a concurrent retry winning between the lookup and the insert:
	// the first lookup misses, the insert hits the unique conflict, and the
	// second lookup sees the winner.
	winner := &domain.Transfer{
		ID:              "transfer-winner",
		OwnerID:         "owner-1",
		FromAccountID:   "acc-1",
		ToAccountID:     "acc-2",
		Amount:          decimal.NewFromInt(100),
		ClientRequestID: "req-7",
	}

	lookups := 0
	transferRepo.GetByClientRequestIDFunc = func(ctx context.Context, scope domain.Scope, clientRequestID string) (*domain.Transfer, error) {
		lookups++
		if lookups == 1 {
			return nil, nil
		}
		return winner, nil
	}
	transferRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
		return &domain.ConflictError{Message: "duplicate client request id"}
	}

	transfer, err := uc.CreateTransfer(context.Background(), testScope(), usecase.CreateTransferInput{
		FromAccountID:   "acc-1",
		ToAccountID:     "acc-2",
		Amount:          decimal.NewFromInt(100),
		ClientRequestID: "req-7",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if transfer.ID != "transfer-winner" {
		t.Errorf("resolved transfer = %s, want transfer-winner", transfer.ID)
	}
	if lookups != 2 {
		t.Errorf("lookups = %d, want 2", lookups)
	}
}

func TestTransferUseCase_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.MockAccountRepository)
		input usecase.CreateTransferInput
	}{
		{
			name: "same account",
			input: usecase.CreateTransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-1",
				Amount:        decimal.NewFromInt(10),
			},
		},
		{
			name: "non-positive amount",
			input: usecase.CreateTransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.Zero,
			},
		},
		{
			name: "frozen source account",
			setup: func(accRepo *mocks.MockAccountRepository) {
				acc, _ := accRepo.GetByID(context.Background(), testScope(), "acc-1")
				acc.Frozen = true
			},
			input: usecase.CreateTransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(10),
			},
		},
		{
			name: "missing destination account",
			input: usecase.CreateTransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-missing",
				Amount:        decimal.NewFromInt(10),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, accRepo, _, txnRepo := newTransferFixture()
			seedAccount(t, accRepo, "acc-1")
			seedAccount(t, accRepo, "acc-2")
			if tt.setup != nil {
				tt.setup(accRepo)
			}

			if _, err := uc.CreateTransfer(context.Background(), testScope(), tt.input); err == nil {
				t.Fatal("expected error, got nil")
			}

			// A rejected transfer must leave no partial legs behind.
			if n := countTransactions(t, txnRepo, "acc-1") + countTransactions(t, txnRepo, "acc-2"); n != 0 {
				t.Errorf("found %d leg transactions after rejected transfer", n)
			}
		})
	}
}
