package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// InvoiceUseCase handles invoice totals, the status state machine, and
// payment application against party ledgers.
type InvoiceUseCase struct {
	txManager   TransactionManager
	invoiceRepo InvoiceRepository
	partyRepo   PartyRepository
	entryRepo   PartyEntryRepository
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewInvoiceUseCase creates a new InvoiceUseCase.
func NewInvoiceUseCase(
	txManager TransactionManager,
	invoiceRepo InvoiceRepository,
	partyRepo PartyRepository,
	entryRepo PartyEntryRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txManager:   txManager,
		invoiceRepo: invoiceRepo,
		partyRepo:   partyRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		logger:      logger,
		metrics:     metrics,
	}
}

// CreateInvoiceInput represents input for creating an invoice.
type CreateInvoiceInput struct {
	Type          domain.InvoiceType
	PartyID       string
	Number        string
	Date          time.Time
	DueDate       time.Time
	Items         []domain.InvoiceItem
	DiscountMode  domain.DiscountMode
	DiscountValue decimal.Decimal
}

// CreateInvoice creates a draft invoice with computed totals. Nothing posts
// to the party ledger until the invoice leaves draft.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, scope domain.Scope, input CreateInvoiceInput) (*domain.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	invoice := &domain.Invoice{
		ID:            uc.idGen.Generate(),
		OwnerID:       scope.OwnerID,
		OrgID:         scope.OrgID,
		Type:          input.Type,
		PartyID:       input.PartyID,
		Number:        input.Number,
		Date:          date.UTC(),
		DueDate:       input.DueDate.UTC(),
		Items:         input.Items,
		DiscountMode:  input.DiscountMode,
		DiscountValue: input.DiscountValue,
		AmountPaid:    decimal.Zero,
		Status:        domain.InvoiceDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	invoice.ComputeTotals()

	// The party must exist in the caller's scope.
	if _, err := uc.partyRepo.GetByID(ctx, scope, input.PartyID); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.invoiceRepo.Create(ctx, tx, invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesCreated.WithLabelValues(string(invoice.Type)).Inc()
	}

	return invoice, nil
}

// GetInvoice retrieves an invoice by ID.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.invoiceRepo.GetByID(ctx, scope, id)
}

// ListInvoices lists invoices with filters.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, scope domain.Scope, filter InvoiceFilter) ([]*domain.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return uc.invoiceRepo.List(ctx, scope, filter)
}

// UpdateStatus moves an invoice through the state machine. Issuing an
// invoice (draft -> pending) posts it to the party ledger; cancelling an
// issued invoice posts a reversing entry so the party balance returns.
func (uc *InvoiceUseCase) UpdateStatus(ctx context.Context, scope domain.Scope, id string, to domain.InvoiceStatus) (*domain.Invoice, error) {
	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	invoice, err := uc.invoiceRepo.GetByIDForUpdate(ctx, tx, scope, id)
	if err != nil {
		return nil, err
	}

	from := invoice.Status
	if !domain.CanTransition(from, to) {
		return nil, &domain.InvalidTransitionError{From: from, To: to}
	}

	now := time.Now().UTC()
	invoice.Status = to
	invoice.UpdatedAt = now

	if err := uc.invoiceRepo.Update(ctx, tx, invoice); err != nil {
		return nil, err
	}

	switch {
	case from == domain.InvoiceDraft && to == domain.InvoicePending:
		if err := uc.postInvoice(ctx, tx, scope, invoice, now, false); err != nil {
			return nil, err
		}
	case to == domain.InvoiceCancelled && from != domain.InvoiceDraft:
		if err := uc.postInvoice(ctx, tx, scope, invoice, now, true); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return invoice, nil
}

// postInvoice writes the invoice's party ledger entry and moves the party
// balance. Sale invoices debit the party (receivable up), purchases credit
// it. With reverse set the sides swap, undoing the original posting.
func (uc *InvoiceUseCase) postInvoice(ctx context.Context, tx Transaction, scope domain.Scope, invoice *domain.Invoice, now time.Time, reverse bool) error {
	party, err := uc.partyRepo.GetByIDForUpdate(ctx, tx, scope, invoice.PartyID)
	if err != nil {
		return err
	}

	debit := invoice.Type == domain.InvoiceSale
	if reverse {
		debit = !debit
	}

	memo := "invoice " + invoice.Number
	if reverse {
		memo += " cancelled"
	}

	entry := &domain.PartyEntry{
		ID:        uc.idGen.Generate(),
		OwnerID:   scope.OwnerID,
		PartyID:   party.ID,
		Kind:      domain.PartyEntryInvoice,
		RefID:     invoice.ID,
		Memo:      memo,
		Date:      invoice.Date,
		CreatedAt: now,
	}
	if debit {
		entry.Debit = invoice.GrandTotal
	} else {
		entry.Credit = invoice.GrandTotal
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	newBalance := party.CurrentBalance.Add(entry.Signed())

	return uc.partyRepo.UpdateBalance(ctx, tx, party.ID, newBalance, now)
}

// RecordPaymentInput represents input for recording a payment.
type RecordPaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Date      time.Time
}

// RecordPayment applies a payment to an invoice and posts the matching
// entry on the party ledger, moving its balance back toward zero.
func (uc *InvoiceUseCase) RecordPayment(ctx context.Context, scope domain.Scope, invoiceID string, input RecordPaymentInput) (*domain.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	invoice, err := uc.invoiceRepo.GetByIDForUpdate(ctx, tx, scope, invoiceID)
	if err != nil {
		return nil, err
	}

	switch invoice.Status {
	case domain.InvoiceCancelled:
		return nil, &domain.ValidationError{Field: "status", Message: "cannot pay a cancelled invoice"}
	case domain.InvoicePaid:
		return nil, &domain.ValidationError{Field: "status", Message: "invoice is already paid"}
	case domain.InvoiceDraft:
		return nil, &domain.ValidationError{Field: "status", Message: "issue the invoice before recording payments"}
	}

	if input.Amount.GreaterThan(invoice.BalanceDue()) {
		return nil, &domain.ValidationError{Field: "amount", Message: "exceeds balance due"}
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	payment := domain.Payment{
		ID:        uc.idGen.Generate(),
		Amount:    input.Amount,
		Method:    input.Method,
		Reference: input.Reference,
		Date:      date.UTC(),
	}

	invoice.ApplyPayment(payment)
	invoice.UpdatedAt = now

	if err := uc.invoiceRepo.Update(ctx, tx, invoice); err != nil {
		return nil, err
	}

	party, err := uc.partyRepo.GetByIDForUpdate(ctx, tx, scope, invoice.PartyID)
	if err != nil {
		return nil, err
	}

	// Payments post opposite to the invoice: a customer payment credits
	// the receivable, a payment to a supplier debits the payable.
	entry := &domain.PartyEntry{
		ID:        uc.idGen.Generate(),
		OwnerID:   scope.OwnerID,
		PartyID:   party.ID,
		Kind:      domain.PartyEntryPayment,
		RefID:     invoice.ID,
		Memo:      "payment for invoice " + invoice.Number,
		Date:      payment.Date,
		CreatedAt: now,
	}
	if invoice.Type == domain.InvoiceSale {
		entry.Credit = input.Amount
	} else {
		entry.Debit = input.Amount
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	newBalance := party.CurrentBalance.Add(entry.Signed())
	if err := uc.partyRepo.UpdateBalance(ctx, tx, party.ID, newBalance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsRecorded.Inc()
	}

	return invoice, nil
}

// DeleteInvoice removes a draft invoice. Issued invoices are immutable
// history; cancel them instead.
func (uc *InvoiceUseCase) DeleteInvoice(ctx context.Context, scope domain.Scope, id string) error {
	if err := scope.Require(domain.CapInvoiceWrite); err != nil {
		return err
	}

	invoice, err := uc.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}

	if invoice.Status != domain.InvoiceDraft {
		return &domain.ConflictError{Message: "only draft invoices can be deleted"}
	}

	return uc.invoiceRepo.Delete(ctx, scope, id)
}

// MarkOverdue is the background due-date sweep: pending and partial
// invoices past their due date move to overdue. This is the only path into
// the overdue status.
func (uc *InvoiceUseCase) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	due, err := uc.invoiceRepo.ListDueForOverdue(ctx, asOf, 500)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, invoice := range due {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return marked, err
		}

		invoice.Status = domain.InvoiceOverdue
		invoice.UpdatedAt = time.Now().UTC()

		if err := uc.invoiceRepo.Update(ctx, tx, invoice); err != nil {
			tx.Rollback(ctx)
			return marked, err
		}

		if err := tx.Commit(ctx); err != nil {
			return marked, err
		}

		marked++
		uc.logger.Info().Str("invoice_id", invoice.ID).Msg("invoice marked overdue")
	}

	if uc.metrics != nil && marked > 0 {
		uc.metrics.InvoicesOverdue.Add(float64(marked))
	}

	return marked, nil
}
