package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, scope domain.Scope, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateAccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error)
	ListSummaries(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), scope, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Update updates account attributes.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), scope, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Summary lists all accounts with activity totals.
func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	summaries, err := h.accountUC.ListSummaries(r.Context(), scope)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountSummariesResponse{
		Summaries: dto.AccountSummariesFromUseCase(summaries),
		Total:     int64(len(summaries)),
	})
}
