package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestInvoice_ComputeTotals(t *testing.T) {
	tests := []struct {
		name          string
		items         []InvoiceItem
		discountMode  DiscountMode
		discountValue decimal.Decimal
		wantSubtotal  string
		wantTax       string
		wantDiscount  string
		wantGrand     string
	}{
		{
			name: "single line with percentage discount",
			items: []InvoiceItem{
				{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), TaxRate: decimal.NewFromInt(10)},
			},
			discountMode:  DiscountPercentage,
			discountValue: decimal.NewFromInt(10),
			wantSubtotal:  "100",
			wantTax:       "10",
			wantDiscount:  "10",
			wantGrand:     "100",
		},
		{
			name: "fixed discount clamped to subtotal plus tax",
			items: []InvoiceItem{
				{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(20), TaxRate: decimal.NewFromInt(5)},
			},
			discountMode:  DiscountFixed,
			discountValue: decimal.NewFromInt(500),
			wantSubtotal:  "20",
			wantTax:       "1",
			wantDiscount:  "21",
			wantGrand:     "0",
		},
		{
			name: "intermediate values not rounded before summation",
			items: []InvoiceItem{
				{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("0.333"), TaxRate: decimal.Zero},
				{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("0.333"), TaxRate: decimal.Zero},
			},
			discountMode: DiscountFixed,
			wantSubtotal: "2",
			wantTax:      "0",
			wantDiscount: "0",
			wantGrand:    "2",
		},
		{
			name: "no discount",
			items: []InvoiceItem{
				{Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("12.50"), TaxRate: decimal.NewFromInt(20)},
			},
			wantSubtotal: "50",
			wantTax:      "10",
			wantDiscount: "0",
			wantGrand:    "60",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{
				Items:         tt.items,
				DiscountMode:  tt.discountMode,
				DiscountValue: tt.discountValue,
			}
			inv.ComputeTotals()

			checks := []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"subtotal", inv.Subtotal, tt.wantSubtotal},
				{"tax", inv.TaxTotal, tt.wantTax},
				{"discount", inv.DiscountAmount, tt.wantDiscount},
				{"grand total", inv.GrandTotal, tt.wantGrand},
			}
			for _, c := range checks {
				if !c.got.Equal(decimal.RequireFromString(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceDraft, InvoicePending, true},
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceDraft, InvoicePaid, false},
		{InvoicePending, InvoicePartial, true},
		{InvoicePending, InvoicePaid, true},
		{InvoicePartial, InvoicePaid, true},
		{InvoicePartial, InvoicePending, false},
		{InvoiceOverdue, InvoicePaid, true},
		{InvoiceOverdue, InvoicePartial, true},
		{InvoicePaid, InvoicePending, false},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoiceCancelled, InvoicePending, false},
		{InvoicePending, InvoiceOverdue, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestInvoice_ApplyPayment(t *testing.T) {
	inv := &Invoice{
		GrandTotal: decimal.NewFromInt(100),
		Status:     InvoicePending,
	}

	inv.ApplyPayment(Payment{ID: "p1", Amount: decimal.NewFromInt(40)})
	if inv.Status != InvoicePartial {
		t.Fatalf("status after partial payment = %s, want %s", inv.Status, InvoicePartial)
	}

	inv.ApplyPayment(Payment{ID: "p2", Amount: decimal.NewFromInt(60)})
	if inv.Status != InvoicePaid {
		t.Fatalf("status after full payment = %s, want %s", inv.Status, InvoicePaid)
	}

	if !inv.BalanceDue().IsZero() {
		t.Fatalf("balance due = %s, want 0", inv.BalanceDue())
	}

	if len(inv.Payments) != 2 {
		t.Fatalf("payments recorded = %d, want 2", len(inv.Payments))
	}
}

func TestInvoice_Validate(t *testing.T) {
	valid := &Invoice{
		Type:    InvoiceSale,
		PartyID: "party-1",
		Items: []InvoiceItem{
			{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid invoice rejected: %v", err)
	}

	noItems := &Invoice{Type: InvoiceSale, PartyID: "party-1"}
	if err := noItems.Validate(); err == nil {
		t.Fatal("expected error for invoice without items")
	}

	badQty := &Invoice{
		Type:    InvoicePurchase,
		PartyID: "party-1",
		Items: []InvoiceItem{
			{Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(10)},
		},
	}
	if err := badQty.Validate(); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}
