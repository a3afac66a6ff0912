package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer links a debit leg and a credit leg moving value between two
// accounts of the same owner. Both legs exist or neither does.
// ClientRequestID, when present, makes retries idempotent: a second create
// with the same id returns the original transfer unchanged.
type Transfer struct {
	ID                  string
	OwnerID             string
	OrgID               string
	FromAccountID       string
	ToAccountID         string
	DebitTransactionID  string
	CreditTransactionID string
	Amount              decimal.Decimal
	Date                time.Time
	ClientRequestID     string
	Metadata            map[string]any
	CreatedAt           time.Time
}

// Validate validates the transfer request fields.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return &ConflictError{Message: "cannot transfer to the same account"}
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}

	return nil
}
