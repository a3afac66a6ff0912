package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
)

// PartyUseCase handles customer/supplier records and their running ledgers.
type PartyUseCase struct {
	partyRepo PartyRepository
	entryRepo PartyEntryRepository
	idGen     IDGenerator
}

// NewPartyUseCase creates a new PartyUseCase.
func NewPartyUseCase(partyRepo PartyRepository, entryRepo PartyEntryRepository, idGen IDGenerator) *PartyUseCase {
	return &PartyUseCase{
		partyRepo: partyRepo,
		entryRepo: entryRepo,
		idGen:     idGen,
	}
}

// CreatePartyInput represents input for creating a party.
type CreatePartyInput struct {
	Name           string
	Kind           domain.PartyKind
	Email          string
	Phone          string
	OpeningBalance decimal.Decimal
	CreditLimit    decimal.Decimal
	CreditDays     int
}

// CreateParty creates a customer or supplier.
func (uc *PartyUseCase) CreateParty(ctx context.Context, scope domain.Scope, input CreatePartyInput) (*domain.Party, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return nil, err
	}

	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	if !domain.ValidPartyKind(input.Kind) {
		return nil, &domain.ValidationError{Field: "kind", Message: "must be customer or supplier"}
	}

	now := time.Now().UTC()
	party := &domain.Party{
		ID:             uc.idGen.Generate(),
		OwnerID:        scope.OwnerID,
		OrgID:          scope.OrgID,
		Name:           input.Name,
		Kind:           input.Kind,
		Email:          input.Email,
		Phone:          input.Phone,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		CreditLimit:    input.CreditLimit,
		CreditDays:     input.CreditDays,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.partyRepo.Create(ctx, party); err != nil {
		return nil, err
	}

	return party, nil
}

// GetParty retrieves a party by ID.
func (uc *PartyUseCase) GetParty(ctx context.Context, scope domain.Scope, id string) (*domain.Party, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.partyRepo.GetByID(ctx, scope, id)
}

// UpdatePartyInput represents input for updating a party. Nil fields are
// left unchanged. Balances are derived and cannot be set directly.
type UpdatePartyInput struct {
	Name        *string
	Email       *string
	Phone       *string
	CreditLimit *decimal.Decimal
	CreditDays  *int
}

// UpdateParty updates party attributes.
func (uc *PartyUseCase) UpdateParty(ctx context.Context, scope domain.Scope, id string, input UpdatePartyInput) (*domain.Party, error) {
	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return nil, err
	}

	party, err := uc.partyRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := domain.ValidateName(*input.Name); err != nil {
			return nil, err
		}

		party.Name = *input.Name
	}
	if input.Email != nil {
		party.Email = *input.Email
	}
	if input.Phone != nil {
		party.Phone = *input.Phone
	}
	if input.CreditLimit != nil {
		party.CreditLimit = *input.CreditLimit
	}
	if input.CreditDays != nil {
		party.CreditDays = *input.CreditDays
	}
	party.UpdatedAt = time.Now().UTC()

	if err := uc.partyRepo.Update(ctx, party); err != nil {
		return nil, err
	}

	return party, nil
}

// DeleteParty deactivates a party. The ledger history stays intact.
func (uc *PartyUseCase) DeleteParty(ctx context.Context, scope domain.Scope, id string) error {
	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return err
	}

	if _, err := uc.partyRepo.GetByID(ctx, scope, id); err != nil {
		return err
	}

	return uc.partyRepo.Deactivate(ctx, scope, id, time.Now().UTC())
}

// ListParties lists parties, optionally filtered by kind.
func (uc *PartyUseCase) ListParties(ctx context.Context, scope domain.Scope, kind domain.PartyKind, limit, offset int) ([]*domain.Party, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if kind != "" && !domain.ValidPartyKind(kind) {
		return nil, &domain.ValidationError{Field: "kind", Message: "must be customer or supplier"}
	}

	return uc.partyRepo.List(ctx, scope, kind, clampLimit(limit), offset)
}

// LedgerLine is one party ledger entry with its cumulative running balance.
type LedgerLine struct {
	Entry          *domain.PartyEntry
	RunningBalance decimal.Decimal
}

// LedgerPage is one page of a party's ledger with correct opening and
// closing values for the page.
type LedgerPage struct {
	Party          *domain.Party
	Lines          []LedgerLine
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	TotalEntries   int64
}

// GetLedger returns a page of the party's ledger. The page opening balance
// is the party's opening balance plus the signed sum of every entry
// strictly before the page offset; local-page math alone would be wrong for
// any page but the first.
func (uc *PartyUseCase) GetLedger(ctx context.Context, scope domain.Scope, partyID string, limit, offset int) (*LedgerPage, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	party, err := uc.partyRepo.GetByID(ctx, scope, partyID)
	if err != nil {
		return nil, err
	}

	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	before, err := uc.entryRepo.SumBefore(ctx, partyID, offset)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByParty(ctx, partyID, limit, offset)
	if err != nil {
		return nil, err
	}

	opening := party.OpeningBalance.Add(before)
	running := opening

	lines := make([]LedgerLine, 0, len(entries))
	for _, e := range entries {
		running = running.Add(e.Signed())
		lines = append(lines, LedgerLine{Entry: e, RunningBalance: running})
	}

	debit, credit, count, err := uc.entryRepo.Totals(ctx, partyID)
	if err != nil {
		return nil, err
	}

	return &LedgerPage{
		Party:          party,
		Lines:          lines,
		OpeningBalance: opening,
		ClosingBalance: running,
		TotalDebit:     debit,
		TotalCredit:    credit,
		TotalEntries:   count,
	}, nil
}
