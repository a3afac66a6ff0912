package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts the first failure
// into a domain validation error so handlers map it to a 400.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return &domain.ValidationError{
			Field:   verrs[0].Field(),
			Message: "failed on " + verrs[0].Tag(),
		}
	}

	return &domain.ValidationError{Message: err.Error()}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=cash bank credit_card wallet other"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name: r.Name,
		Kind: domain.AccountKind(r.Kind),
	}
}

// UpdateAccountRequest represents a partial account update. Absent fields
// are left untouched.
type UpdateAccountRequest struct {
	Name   *string `json:"name,omitempty"`
	Kind   *string `json:"kind,omitempty" validate:"omitempty,oneof=cash bank credit_card wallet other"`
	Active *bool   `json:"active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput() usecase.UpdateAccountInput {
	input := usecase.UpdateAccountInput{
		Name:   r.Name,
		Active: r.Active,
	}
	if r.Kind != nil {
		kind := domain.AccountKind(*r.Kind)
		input.Kind = &kind
	}
	return input
}

// CreateTransactionRequest represents a request to append a ledger entry.
type CreateTransactionRequest struct {
	AccountID    string          `json:"account_id" validate:"required"`
	Type         string          `json:"type" validate:"required,oneof=debit credit"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	Category     string          `json:"category,omitempty"`
	PartyID      string          `json:"party_id,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input. Transactions created over the
// API are always manual entries; transfer and import legs come from their
// own paths.
func (r *CreateTransactionRequest) ToUseCaseInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		AccountID:    r.AccountID,
		Type:         domain.EntryType(r.Type),
		Amount:       r.Amount,
		Date:         r.Date,
		Category:     r.Category,
		PartyID:      r.PartyID,
		Counterparty: r.Counterparty,
		Notes:        r.Notes,
		Source:       domain.SourceManual,
	}
}

// UpdateTransactionRequest represents a partial edit of a transaction's
// descriptive fields. Amount and type are immutable; void and re-enter.
type UpdateTransactionRequest struct {
	Date         *time.Time `json:"date,omitempty"`
	Category     *string    `json:"category,omitempty"`
	PartyID      *string    `json:"party_id,omitempty"`
	Counterparty *string    `json:"counterparty,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput() usecase.UpdateTransactionInput {
	return usecase.UpdateTransactionInput{
		Date:         r.Date,
		Category:     r.Category,
		PartyID:      r.PartyID,
		Counterparty: r.Counterparty,
		Notes:        r.Notes,
	}
}

// CreateTransferRequest represents a request to create a transfer.
type CreateTransferRequest struct {
	FromAccountID   string          `json:"from_account_id" validate:"required"`
	ToAccountID     string          `json:"to_account_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Date            time.Time       `json:"date" validate:"required"`
	ClientRequestID string          `json:"client_request_id,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		FromAccountID:   r.FromAccountID,
		ToAccountID:     r.ToAccountID,
		Amount:          r.Amount,
		Date:            r.Date,
		ClientRequestID: r.ClientRequestID,
		Metadata:        r.Metadata,
	}
}

// CreatePartyRequest represents a request to create a customer or supplier.
type CreatePartyRequest struct {
	Name           string          `json:"name" validate:"required"`
	Kind           string          `json:"kind" validate:"required,oneof=customer supplier"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string          `json:"phone,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance,omitempty"`
	CreditLimit    decimal.Decimal `json:"credit_limit,omitempty"`
	CreditDays     int             `json:"credit_days,omitempty" validate:"omitempty,gte=0"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePartyRequest) ToUseCaseInput() usecase.CreatePartyInput {
	return usecase.CreatePartyInput{
		Name:           r.Name,
		Kind:           domain.PartyKind(r.Kind),
		Email:          r.Email,
		Phone:          r.Phone,
		OpeningBalance: r.OpeningBalance,
		CreditLimit:    r.CreditLimit,
		CreditDays:     r.CreditDays,
	}
}

// UpdatePartyRequest represents a partial party update.
type UpdatePartyRequest struct {
	Name        *string          `json:"name,omitempty"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string          `json:"phone,omitempty"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	CreditDays  *int             `json:"credit_days,omitempty" validate:"omitempty,gte=0"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdatePartyRequest) ToUseCaseInput() usecase.UpdatePartyInput {
	return usecase.UpdatePartyInput{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		CreditLimit: r.CreditLimit,
		CreditDays:  r.CreditDays,
	}
}

// InvoiceItemRequest represents one invoice line.
type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate,omitempty"`
}

// CreateInvoiceRequest represents a request to create a draft invoice.
type CreateInvoiceRequest struct {
	Type          string               `json:"type" validate:"required,oneof=sale purchase"`
	PartyID       string               `json:"party_id" validate:"required"`
	Number        string               `json:"number,omitempty"`
	Date          time.Time            `json:"date" validate:"required"`
	DueDate       time.Time            `json:"due_date,omitempty"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountMode  string               `json:"discount_mode,omitempty" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue decimal.Decimal      `json:"discount_value,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateInvoiceRequest) ToUseCaseInput() usecase.CreateInvoiceInput {
	items := make([]domain.InvoiceItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		}
	}
	return usecase.CreateInvoiceInput{
		Type:          domain.InvoiceType(r.Type),
		PartyID:       r.PartyID,
		Number:        r.Number,
		Date:          r.Date,
		DueDate:       r.DueDate,
		Items:         items,
		DiscountMode:  domain.DiscountMode(r.DiscountMode),
		DiscountValue: r.DiscountValue,
	}
}

// UpdateInvoiceStatusRequest represents a status transition request.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending partial paid overdue cancelled"`
}

// RecordPaymentRequest represents a payment against an invoice.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required"`
	Reference string          `json:"reference,omitempty"`
	Date      time.Time       `json:"date" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput() usecase.RecordPaymentInput {
	return usecase.RecordPaymentInput{
		Amount:    r.Amount,
		Method:    r.Method,
		Reference: r.Reference,
		Date:      r.Date,
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=income expense"`
}

// UpdateImportMappingRequest represents the mapping step of an import.
type UpdateImportMappingRequest struct {
	Mode           string            `json:"mode" validate:"required,oneof=standard ledger"`
	AccountID      string            `json:"account_id,omitempty"`
	AccountColumns map[string]string `json:"account_columns,omitempty"`
	ColumnMapping  map[string]string `json:"column_mapping,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateImportMappingRequest) ToUseCaseInput() usecase.UpdateMappingInput {
	return usecase.UpdateMappingInput{
		Mode:           r.Mode,
		AccountID:      r.AccountID,
		AccountColumns: r.AccountColumns,
		ColumnMapping:  r.ColumnMapping,
	}
}

// ImportItemEditRequest represents one row edit during import review.
type ImportItemEditRequest struct {
	ID          string           `json:"id" validate:"required"`
	AccountID   *string          `json:"account_id,omitempty"`
	Category    *string          `json:"category,omitempty"`
	PartyID     *string          `json:"party_id,omitempty"`
	Type        *string          `json:"type,omitempty" validate:"omitempty,oneof=debit credit"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Skip        *bool            `json:"skip,omitempty"`
}

// UpdateImportItemsRequest represents a batch of row edits.
type UpdateImportItemsRequest struct {
	Items []ImportItemEditRequest `json:"items" validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateImportItemsRequest) ToUseCaseInput() []usecase.ItemEdit {
	edits := make([]usecase.ItemEdit, len(r.Items))
	for i, it := range r.Items {
		edit := usecase.ItemEdit{
			ID:          it.ID,
			AccountID:   it.AccountID,
			Category:    it.Category,
			PartyID:     it.PartyID,
			Amount:      it.Amount,
			Date:        it.Date,
			Description: it.Description,
			Skip:        it.Skip,
		}
		if it.Type != nil {
			t := domain.EntryType(*it.Type)
			edit.Type = &t
		}
		edits[i] = edit
	}
	return edits
}

// ExecuteImportRequest represents the final step of an import.
type ExecuteImportRequest struct {
	DefaultAccountID string `json:"default_account_id,omitempty"`
	SkipDuplicates   bool   `json:"skip_duplicates,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ExecuteImportRequest) ToUseCaseInput() usecase.ExecuteInput {
	return usecase.ExecuteInput{
		DefaultAccountID: r.DefaultAccountID,
		SkipDuplicates:   r.SkipDuplicates,
	}
}

// RecomputeSnapshotsRequest represents a request to rebuild snapshots for
// one account from a point in time.
type RecomputeSnapshotsRequest struct {
	AccountID   string    `json:"account_id" validate:"required"`
	Granularity string    `json:"granularity" validate:"required,oneof=day month"`
	From        time.Time `json:"from" validate:"required"`
}
