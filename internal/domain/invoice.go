package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes sales from purchases.
type InvoiceType string

const (
	InvoiceSale     InvoiceType = "sale"
	InvoicePurchase InvoiceType = "purchase"
)

// ValidInvoiceType reports whether t is sale or purchase.
func ValidInvoiceType(t InvoiceType) bool {
	return t == InvoiceSale || t == InvoicePurchase
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePartial   InvoiceStatus = "partial"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions is the set of status changes a caller may request.
// paid and cancelled are terminal. Nothing transitions into overdue here;
// overdue is entered only by the background due-date sweep.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoicePending, InvoiceCancelled},
	InvoicePending: {InvoicePartial, InvoicePaid, InvoiceCancelled},
	InvoicePartial: {InvoicePaid, InvoiceCancelled},
	InvoiceOverdue: {InvoicePartial, InvoicePaid, InvoiceCancelled},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// DiscountMode selects how an invoice discount is interpreted.
type DiscountMode string

const (
	DiscountPercentage DiscountMode = "percentage"
	DiscountFixed      DiscountMode = "fixed"
)

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// Net returns quantity times unit price, unrounded.
func (i InvoiceItem) Net() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Tax returns the tax on the line, unrounded.
func (i InvoiceItem) Tax() decimal.Decimal {
	return i.Net().Mul(i.TaxRate).Div(decimal.NewFromInt(100))
}

// Payment is one payment recorded against an invoice.
type Payment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Date      time.Time       `json:"date"`
}

// Invoice is a sale or purchase document against a party, with computed
// totals and an embedded payment history.
type Invoice struct {
	ID             string
	OwnerID        string
	OrgID          string
	Type           InvoiceType
	PartyID        string
	Number         string
	Date           time.Time
	DueDate        time.Time
	Items          []InvoiceItem
	DiscountMode   DiscountMode
	DiscountValue  decimal.Decimal
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
	AmountPaid     decimal.Decimal
	Status         InvoiceStatus
	Payments       []Payment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComputeTotals recalculates subtotal, tax, discount and grand total from
// the line items. Per-line values stay unrounded; only the final stored
// fields are rounded to two decimal places.
func (inv *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Net())
		tax = tax.Add(item.Tax())
	}

	discount := decimal.Zero
	switch inv.DiscountMode {
	case DiscountPercentage:
		discount = subtotal.Mul(inv.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = inv.DiscountValue
	}

	// A discount can never exceed what is owed.
	if max := subtotal.Add(tax); discount.GreaterThan(max) {
		discount = max
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	inv.Subtotal = subtotal.Round(2)
	inv.TaxTotal = tax.Round(2)
	inv.DiscountAmount = discount.Round(2)
	inv.GrandTotal = subtotal.Add(tax).Sub(discount).Round(2)
}

// BalanceDue returns grand total minus amount paid.
func (inv *Invoice) BalanceDue() decimal.Decimal {
	return inv.GrandTotal.Sub(inv.AmountPaid)
}

// Validate checks invoice fields that do not require storage access.
func (inv *Invoice) Validate() error {
	if !ValidInvoiceType(inv.Type) {
		return &ValidationError{Field: "type", Message: "must be sale or purchase"}
	}

	if inv.PartyID == "" {
		return &ValidationError{Field: "party_id", Message: "party is required"}
	}

	if len(inv.Items) == 0 {
		return &ValidationError{Field: "items", Message: "at least one line item is required"}
	}

	for i, item := range inv.Items {
		line := strconv.Itoa(i + 1)
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{Field: "items", Message: "quantity must be positive on line " + line}
		}

		if item.UnitPrice.IsNegative() {
			return &ValidationError{Field: "items", Message: "unit price cannot be negative on line " + line}
		}

		if item.TaxRate.IsNegative() {
			return &ValidationError{Field: "items", Message: "tax rate cannot be negative on line " + line}
		}
	}

	return nil
}

// ApplyPayment appends a payment and moves the status forward. The caller
// has already validated the amount against BalanceDue.
func (inv *Invoice) ApplyPayment(p Payment) {
	inv.Payments = append(inv.Payments, p)
	inv.AmountPaid = inv.AmountPaid.Add(p.Amount).Round(2)

	if inv.AmountPaid.GreaterThanOrEqual(inv.GrandTotal) {
		inv.Status = InvoicePaid
	} else if inv.AmountPaid.IsPositive() {
		inv.Status = InvoicePartial
	}
}
