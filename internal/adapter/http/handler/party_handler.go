package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// PartyService defines the behavior needed by PartyHandler.
type PartyService interface {
	CreateParty(ctx context.Context, scope domain.Scope, input usecase.CreatePartyInput) (*domain.Party, error)
	GetParty(ctx context.Context, scope domain.Scope, id string) (*domain.Party, error)
	UpdateParty(ctx context.Context, scope domain.Scope, id string, input usecase.UpdatePartyInput) (*domain.Party, error)
	DeleteParty(ctx context.Context, scope domain.Scope, id string) error
	ListParties(ctx context.Context, scope domain.Scope, kind domain.PartyKind, limit, offset int) ([]*domain.Party, error)
	GetLedger(ctx context.Context, scope domain.Scope, partyID string, limit, offset int) (*usecase.LedgerPage, error)
}

// PartyHandler handles customer and supplier HTTP requests.
type PartyHandler struct {
	partyUC PartyService
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(partyUC PartyService) *PartyHandler {
	return &PartyHandler{partyUC: partyUC}
}

// Create creates a customer or supplier.
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.CreatePartyRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	party, err := h.partyUC.CreateParty(r.Context(), scope, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PartyFromDomain(party))
}

// Get retrieves a party by ID.
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	party, err := h.partyUC.GetParty(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartyFromDomain(party))
}

// Update updates party attributes.
func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePartyRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	party, err := h.partyUC.UpdateParty(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartyFromDomain(party))
}

// Delete deactivates a party. History stays intact.
func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	if err := h.partyUC.DeleteParty(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List lists parties, optionally filtered by kind.
func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	kind := domain.PartyKind(r.URL.Query().Get("kind"))
	if kind != "" && kind != domain.PartyCustomer && kind != domain.PartySupplier {
		writeDomainError(w, &domain.ValidationError{Field: "kind", Message: "must be customer or supplier"})
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	parties, err := h.partyUC.ListParties(r.Context(), scope, kind, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPartiesResponse{
		Parties: dto.PartiesFromDomain(parties),
		Total:   int64(len(parties)),
	})
}

// Ledger returns a page of the party's ledger with running balances.
func (h *PartyHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	page, err := h.partyUC.GetLedger(r.Context(), scope, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartyLedgerFromUseCase(page))
}
