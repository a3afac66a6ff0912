package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountFrozen guards writes to an account halted by reconciliation.
	ErrAccountFrozen = errors.New("account is frozen pending reconciliation")
	// ErrAccountInactive rejects writes against a deactivated account.
	ErrAccountInactive = errors.New("account is inactive")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing resource within the caller's scope.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness or state conflict, such as a duplicate
// idempotency key or a same-account transfer.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

// InvalidTransitionError reports an invoice status change the state
// machine does not allow.
type InvalidTransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid invoice transition %s -> %s", e.From, e.To)
}

// ReconciliationError reports a cached balance diverging from the fold of
// active transactions beyond tolerance.
type ReconciliationError struct {
	AccountID string
	Stored    decimal.Decimal
	Computed  decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf(
		"account %s out of balance: stored=%s computed=%s",
		e.AccountID, e.Stored.String(), e.Computed.String(),
	)
}

// Difference returns stored minus computed.
func (e *ReconciliationError) Difference() decimal.Decimal {
	return e.Stored.Sub(e.Computed)
}

// ParseError reports an unreadable or unusable import file. Code is a stable
// machine-readable identifier; Suggestion tells the user what to try instead.
type ParseError struct {
	Code       string
	Message    string
	Suggestion string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed (%s): %s", e.Code, e.Message)
}

// PartialBatchFailure reports an import execution that completed with some
// per-item failures. It is not a hard failure of the whole call.
type PartialBatchFailure struct {
	Failed int
	Total  int
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%d of %d items failed", e.Failed, e.Total)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
