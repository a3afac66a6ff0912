package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyKind distinguishes customers from suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// ValidPartyKind reports whether k is a known kind.
func ValidPartyKind(k PartyKind) bool {
	return k == PartyCustomer || k == PartySupplier
}

// Party is a customer or supplier with a running ledger balance.
// CurrentBalance = OpeningBalance + sum of signed ledger entries. Positive
// balances are receivable, negative payable.
type Party struct {
	ID             string
	OwnerID        string
	OrgID          string
	Name           string
	Kind           PartyKind
	Email          string
	Phone          string
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreditLimit    decimal.Decimal
	CreditDays     int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PartyEntryKind records what produced a party ledger entry.
type PartyEntryKind string

const (
	PartyEntryInvoice PartyEntryKind = "invoice"
	PartyEntryPayment PartyEntryKind = "payment"
)

// PartyEntry is one posting on a party's ledger. Sale invoices post a debit
// (receivable up), purchase invoices a credit (payable up), and payments
// post the opposite side, moving the balance back toward zero.
type PartyEntry struct {
	ID        string
	OwnerID   string
	PartyID   string
	Kind      PartyEntryKind
	RefID     string
	Memo      string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

// Signed returns debit minus credit.
func (e *PartyEntry) Signed() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}
