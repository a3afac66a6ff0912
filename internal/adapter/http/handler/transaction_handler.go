package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, scope domain.Scope, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateTransactionInput) (*domain.Transaction, error)
	VoidTransaction(ctx context.Context, scope domain.Scope, id string) error
}

// TransactionHandler handles ledger entry HTTP requests.
type TransactionHandler struct {
	ledgerUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerUC TransactionService) *TransactionHandler {
	return &TransactionHandler{ledgerUC: ledgerUC}
}

// Create appends a new ledger entry.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := h.ledgerUC.CreateTransaction(r.Context(), scope, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	tx, err := h.ledgerUC.GetTransaction(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// List lists transactions matching the query filters.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txs, err := h.ledgerUC.ListTransactions(r.Context(), scope, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txs),
		Total:        int64(len(txs)),
	})
}

// Update edits the descriptive fields of a transaction.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := h.ledgerUC.UpdateTransaction(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// Void voids a transaction. The row stays behind as an audit trail; only
// the balance effect is reversed.
func (h *TransactionHandler) Void(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	if err := h.ledgerUC.VoidTransaction(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseTransactionFilter(r *http.Request) (usecase.TransactionFilter, error) {
	q := r.URL.Query()
	filter := usecase.TransactionFilter{
		AccountID: q.Get("account_id"),
		Type:      domain.EntryType(q.Get("type")),
		Query:     q.Get("q"),
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	if filter.Type != "" && filter.Type != domain.EntryDebit && filter.Type != domain.EntryCredit {
		return filter, &domain.ValidationError{Field: "type", Message: "must be debit or credit"}
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return filter, &domain.ValidationError{Field: key, Message: "must be RFC 3339"}
			}
			*dst = &t
		}
	}

	for key, dst := range map[string]**decimal.Decimal{"min_amount": &filter.MinAmount, "max_amount": &filter.MaxAmount} {
		if raw := q.Get(key); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return filter, &domain.ValidationError{Field: key, Message: "must be a decimal number"}
			}
			*dst = &d
		}
	}

	return filter, nil
}
