package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants.
const (
	MaxNameLength = 255
	MaxAmount     = "1000000000000" // 1 trillion
)

// BalanceTolerance is the maximum divergence allowed between a cached
// account balance and the fold of its active transactions.
var BalanceTolerance = decimal.RequireFromString("0.01")

// ValidateName validates an account, party or category name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds %d characters", MaxNameLength)}
	}

	return nil
}

// ValidateAmount validates a monetary amount for ledger writes.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return &ValidationError{Field: "amount", Message: "exceeds maximum of " + MaxAmount}
	}

	if amount.Exponent() < -2 {
		return &ValidationError{Field: "amount", Message: "at most two decimal places"}
	}

	return nil
}

// WithinTolerance reports whether two balances agree within BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 1000
	const defaultPageSize = 50

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
