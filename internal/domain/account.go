package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies a ledger account.
type AccountKind string

const (
	AccountKindCash       AccountKind = "cash"
	AccountKindBank       AccountKind = "bank"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindWallet     AccountKind = "wallet"
	AccountKindOther      AccountKind = "other"
)

// ValidAccountKind reports whether k is a known kind.
func ValidAccountKind(k AccountKind) bool {
	switch k {
	case AccountKindCash, AccountKindBank, AccountKindCreditCard, AccountKindWallet, AccountKindOther:
		return true
	}

	return false
}

// Account is a ledger account holding a cached running balance. The balance
// must always equal the fold of all active transactions against it, within
// BalanceTolerance. Accounts are never physically deleted, only deactivated.
type Account struct {
	ID        string
	OwnerID   string
	OrgID     string
	Name      string
	Kind      AccountKind
	Balance   decimal.Decimal
	Version   int64
	Active    bool
	Frozen    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanWrite checks the account accepts ledger writes.
func (a *Account) CanWrite() error {
	if !a.Active {
		return ErrAccountInactive
	}

	if a.Frozen {
		return ErrAccountFrozen
	}

	return nil
}

// ApplyEntry returns the balance after an entry of the given type.
func (a *Account) ApplyEntry(typ EntryType, amount decimal.Decimal) decimal.Decimal {
	if typ == EntryCredit {
		return a.Balance.Add(amount)
	}

	return a.Balance.Sub(amount)
}
