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

func newPartyFixture() (*usecase.PartyUseCase, *mocks.MockPartyRepository, *mocks.MockPartyEntryRepository) {
	partyRepo := mocks.NewMockPartyRepository()
	entryRepo := mocks.NewMockPartyEntryRepository()
	uc := usecase.NewPartyUseCase(partyRepo, entryRepo, mocks.NewMockIDGenerator())
	return uc, partyRepo, entryRepo
}

func TestPartyUseCase_CreateParty(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.CreatePartyInput
		expectError bool
	}{
		{
			name: "customer with opening balance",
			input: usecase.CreatePartyInput{
				Name:           "Acme Traders",
				Kind:           domain.PartyCustomer,
				OpeningBalance: decimal.NewFromInt(250),
				CreditDays:     30,
			},
		},
		{
			name: "supplier",
			input: usecase.CreatePartyInput{
				Name: "Mill Supplies",
				Kind: domain.PartySupplier,
			},
		},
		{
			name:        "unknown kind rejected",
			input:       usecase.CreatePartyInput{Name: "Acme", Kind: "vendor"},
			expectError: true,
		},
		{
			name:        "empty name rejected",
			input:       usecase.CreatePartyInput{Name: "  ", Kind: domain.PartyCustomer},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, _ := newPartyFixture()
			party, err := uc.CreateParty(context.Background(), testScope(), tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !party.CurrentBalance.Equal(tt.input.OpeningBalance) {
				t.Errorf("current balance = %s, want opening %s", party.CurrentBalance, tt.input.OpeningBalance)
			}
			if !party.Active {
				t.Error("new party not active")
			}
		})
	}
}

func TestPartyUseCase_DeleteKeepsHistory(t *testing.T) {
	uc, partyRepo, _ := newPartyFixture()
	ctx := context.Background()

	party, err := uc.CreateParty(ctx, testScope(), usecase.CreatePartyInput{Name: "Acme", Kind: domain.PartyCustomer})
	if err != nil {
		t.Fatalf("create party: %v", err)
	}

	if err := uc.DeleteParty(ctx, testScope(), party.ID); err != nil {
		t.Fatalf("delete party: %v", err)
	}

	got, err := partyRepo.GetByID(ctx, testScope(), party.ID)
	if err != nil {
		t.Fatalf("deleted party gone from storage: %v", err)
	}
	if got.Active {
		t.Error("deleted party still active")
	}
}

// seedLedger posts n entries of 10 debit each on consecutive days.
func seedLedger(t *testing.T, entryRepo *mocks.MockPartyEntryRepository, partyID string, n int) {
	t.Helper()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		err := entryRepo.Create(context.Background(), nil, &domain.PartyEntry{
			ID:      string(rune('a'+i)) + "-entry",
			OwnerID: "owner-1",
			PartyID: partyID,
			Kind:    domain.PartyEntryInvoice,
			Debit:   decimal.NewFromInt(10),
			Date:    base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func TestPartyUseCase_GetLedgerPagination(t *testing.T) {
	uc, partyRepo, entryRepo := newPartyFixture()
	ctx := context.Background()

	party := &domain.Party{
		ID:             "party-1",
		OwnerID:        "owner-1",
		Name:           "Acme",
		Kind:           domain.PartyCustomer,
		OpeningBalance: decimal.NewFromInt(100),
		CurrentBalance: decimal.NewFromInt(150),
		Active:         true,
	}
	if err := partyRepo.Create(ctx, party); err != nil {
		t.Fatalf("create party: %v", err)
	}
	seedLedger(t, entryRepo, "party-1", 5)

	// Middle page: opening must include everything before the offset, not
	// just restart from the party opening balance.
	page, err := uc.GetLedger(ctx, testScope(), "party-1", 2, 2)
	if err != nil {
		t.Fatalf("get ledger: %v", err)
	}

	if want := decimal.NewFromInt(120); !page.OpeningBalance.Equal(want) {
		t.Errorf("page opening = %s, want %s", page.OpeningBalance, want)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("page has %d lines, want 2", len(page.Lines))
	}
	if want := decimal.NewFromInt(130); !page.Lines[0].RunningBalance.Equal(want) {
		t.Errorf("first line running = %s, want %s", page.Lines[0].RunningBalance, want)
	}
	if want := decimal.NewFromInt(140); !page.ClosingBalance.Equal(want) {
		t.Errorf("page closing = %s, want %s", page.ClosingBalance, want)
	}
	if want := decimal.NewFromInt(50); !page.TotalDebit.Equal(want) {
		t.Errorf("total debit = %s, want %s", page.TotalDebit, want)
	}
	if page.TotalEntries != 5 {
		t.Errorf("total entries = %d, want 5", page.TotalEntries)
	}

	// The last page must land exactly on the party's current balance.
	last, err := uc.GetLedger(ctx, testScope(), "party-1", 2, 4)
	if err != nil {
		t.Fatalf("get last page: %v", err)
	}
	if !last.ClosingBalance.Equal(party.CurrentBalance) {
		t.Errorf("last page closing = %s, want current balance %s", last.ClosingBalance, party.CurrentBalance)
	}
}
