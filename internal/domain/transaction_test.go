package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransaction_Signed(t *testing.T) {
	credit := &Transaction{Type: EntryCredit, Amount: decimal.NewFromInt(25)}
	if !credit.Signed().Equal(decimal.NewFromInt(25)) {
		t.Errorf("credit signed = %s, want 25", credit.Signed())
	}

	debit := &Transaction{Type: EntryDebit, Amount: decimal.NewFromInt(25)}
	if !debit.Signed().Equal(decimal.NewFromInt(-25)) {
		t.Errorf("debit signed = %s, want -25", debit.Signed())
	}
}

func TestFoldBalance(t *testing.T) {
	txns := []*Transaction{
		{Type: EntryCredit, Amount: decimal.NewFromInt(100), State: TxActive},
		{Type: EntryDebit, Amount: decimal.NewFromInt(30), State: TxActive},
		{Type: EntryCredit, Amount: decimal.NewFromInt(500), State: TxDeleted},
		{Type: EntryDebit, Amount: decimal.RequireFromString("0.50"), State: TxActive},
	}

	got := FoldBalance(decimal.NewFromInt(10), txns)
	want := decimal.RequireFromString("79.50")
	if !got.Equal(want) {
		t.Fatalf("FoldBalance = %s, want %s", got, want)
	}
}

func TestTransaction_Validate(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		txn         Transaction
		expectError bool
	}{
		{
			name:        "valid credit",
			txn:         Transaction{Type: EntryCredit, Amount: decimal.NewFromInt(10), AccountID: "acc-1", Date: date},
			expectError: false,
		},
		{
			name:        "zero amount",
			txn:         Transaction{Type: EntryDebit, Amount: decimal.Zero, AccountID: "acc-1", Date: date},
			expectError: true,
		},
		{
			name:        "negative amount",
			txn:         Transaction{Type: EntryDebit, Amount: decimal.NewFromInt(-5), AccountID: "acc-1", Date: date},
			expectError: true,
		},
		{
			name:        "unknown type",
			txn:         Transaction{Type: "refund", Amount: decimal.NewFromInt(10), AccountID: "acc-1", Date: date},
			expectError: true,
		},
		{
			name:        "missing account",
			txn:         Transaction{Type: EntryCredit, Amount: decimal.NewFromInt(10), Date: date},
			expectError: true,
		},
		{
			name:        "missing date",
			txn:         Transaction{Type: EntryCredit, Amount: decimal.NewFromInt(10), AccountID: "acc-1"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_CanWrite(t *testing.T) {
	active := &Account{Active: true}
	if err := active.CanWrite(); err != nil {
		t.Errorf("active account rejected: %v", err)
	}

	inactive := &Account{Active: false}
	if err := inactive.CanWrite(); err != ErrAccountInactive {
		t.Errorf("inactive account error = %v, want ErrAccountInactive", err)
	}

	frozen := &Account{Active: true, Frozen: true}
	if err := frozen.CanWrite(); err != ErrAccountFrozen {
		t.Errorf("frozen account error = %v, want ErrAccountFrozen", err)
	}
}
