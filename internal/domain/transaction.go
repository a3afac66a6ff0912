package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// ValidEntryType reports whether t is debit or credit.
func ValidEntryType(t EntryType) bool {
	return t == EntryDebit || t == EntryCredit
}

// TxState is the lifecycle state of a transaction. Voided entries are kept
// as soft-deleted rows, never removed.
type TxState string

const (
	TxActive  TxState = "active"
	TxDeleted TxState = "deleted"
)

// TxSource records where a transaction came from.
type TxSource string

const (
	SourceManual   TxSource = "manual"
	SourceTransfer TxSource = "transfer"
	SourceImport   TxSource = "import"
)

// Transaction is a single ledger entry against one account. BalanceAfter is
// the account balance immediately after the entry was applied, kept for
// audit. Once persisted, amounts are never edited in place; corrections void
// the entry or add compensating ones.
type Transaction struct {
	ID             string
	OwnerID        string
	OrgID          string
	AccountID      string
	Type           EntryType
	Amount         decimal.Decimal
	Date           time.Time
	Category       string
	PartyID        string
	Counterparty   string
	Notes          string
	BalanceAfter   decimal.Decimal
	AccountVersion int64
	State          TxState
	Source         TxSource
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive is the single lifecycle predicate all balance and aggregation
// code must go through.
func (t *Transaction) IsActive() bool {
	return t.State == TxActive
}

// Signed returns the amount with ledger sign applied: credits are positive,
// debits negative.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == EntryCredit {
		return t.Amount
	}

	return t.Amount.Neg()
}

// Validate checks the transaction fields that do not require storage access.
func (t *Transaction) Validate() error {
	if !ValidEntryType(t.Type) {
		return &ValidationError{Field: "type", Message: "must be debit or credit"}
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	if t.AccountID == "" {
		return &ValidationError{Field: "account_id", Message: "account is required"}
	}

	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}

	return nil
}

// FoldBalance folds transactions over a starting balance, skipping
// non-active entries.
func FoldBalance(start decimal.Decimal, txns []*Transaction) decimal.Decimal {
	balance := start
	for _, t := range txns {
		if !t.IsActive() {
			continue
		}

		balance = balance.Add(t.Signed())
	}

	return balance
}
