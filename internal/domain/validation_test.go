package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		expectError bool
	}{
		{"positive", "10.50", false},
		{"smallest", "0.01", false},
		{"zero", "0", true},
		{"negative", "-1", true},
		{"too many decimals", "1.005", true},
		{"too large", "1000000000001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Main Checking"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateName("   "); err == nil {
		t.Error("expected error for blank name")
	}

	if err := ValidateName(strings.Repeat("x", MaxNameLength+1)); err == nil {
		t.Error("expected error for overlong name")
	}
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")

	if !WithinTolerance(a, decimal.RequireFromString("100.01")) {
		t.Error("0.01 difference should be within tolerance")
	}

	if WithinTolerance(a, decimal.RequireFromString("100.02")) {
		t.Error("0.02 difference should be out of tolerance")
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Errorf("defaults = (%d, %d), want (50, 0)", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Errorf("clamped limit = %d, want 1000", limit)
	}
}
