package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// InvoiceService defines the behavior needed by InvoiceHandler.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, scope domain.Scope, input usecase.CreateInvoiceInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, scope domain.Scope, filter usecase.InvoiceFilter) ([]*domain.Invoice, error)
	UpdateStatus(ctx context.Context, scope domain.Scope, id string, to domain.InvoiceStatus) (*domain.Invoice, error)
	RecordPayment(ctx context.Context, scope domain.Scope, invoiceID string, input usecase.RecordPaymentInput) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, scope domain.Scope, id string) error
}

// InvoiceHandler handles invoice-related HTTP requests.
type InvoiceHandler struct {
	invoiceUC InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceUC InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC}
}

// Create creates a draft invoice.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	invoice, err := h.invoiceUC.CreateInvoice(r.Context(), scope, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InvoiceFromDomain(invoice))
}

// Get retrieves an invoice by ID.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	invoice, err := h.invoiceUC.GetInvoice(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// List lists invoices matching the query filters.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := usecase.InvoiceFilter{
		Type:    domain.InvoiceType(q.Get("type")),
		Status:  domain.InvoiceStatus(q.Get("status")),
		PartyID: q.Get("party_id"),
		Limit:   parseIntQuery(r, "limit", 50),
		Offset:  parseIntQuery(r, "offset", 0),
	}

	invoices, err := h.invoiceUC.ListInvoices(r.Context(), scope, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListInvoicesResponse{
		Invoices: dto.InvoicesFromDomain(invoices),
		Total:    int64(len(invoices)),
	})
}

// UpdateStatus moves an invoice through its state machine.
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	invoice, err := h.invoiceUC.UpdateStatus(r.Context(), scope, chi.URLParam(r, "id"), domain.InvoiceStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// RecordPayment applies a payment to an invoice.
func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	invoice, err := h.invoiceUC.RecordPayment(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// Delete deletes a draft invoice. Posted invoices are cancelled through the
// status machine instead.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	if err := h.invoiceUC.DeleteInvoice(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
