package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

type accountServiceStub struct {
	createFn    func(ctx context.Context, scope domain.Scope, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn       func(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error)
	updateFn    func(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateAccountInput) (*domain.Account, error)
	listFn      func(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error)
	summariesFn func(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, scope domain.Scope, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, scope, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error) {
	return s.getFn(ctx, scope, id)
}

func (s *accountServiceStub) UpdateAccount(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateAccountInput) (*domain.Account, error) {
	return s.updateFn(ctx, scope, id, input)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error) {
	return s.listFn(ctx, scope, limit, offset)
}

func (s *accountServiceStub) ListSummaries(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error) {
	return s.summariesFn(ctx, scope)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:      "acc-1",
		OwnerID: "owner-1",
		Name:    "Main Till",
		Kind:    domain.AccountKindCash,
		Balance: decimal.Zero,
		Active:  true,
	}

	var captured usecase.CreateAccountInput
	var capturedScope domain.Scope
	h := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, scope domain.Scope, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			capturedScope = scope
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Name: "Main Till", Kind: "cash"})
	req := withScope(httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Name != "Main Till" || captured.Kind != domain.AccountKindCash {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
	if capturedScope.OwnerID != "owner-1" {
		t.Fatalf("expected scope to flow through, got %+v", capturedScope)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || resp.Kind != "cash" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{})

	body := []byte(`{"name":"Till","kind":"brokerage"}`)
	req := withScope(httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error) {
			return nil, &domain.NotFoundError{Resource: "account", ID: id}
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withScope(req, testScope())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_List_Defaults(t *testing.T) {
	var gotLimit, gotOffset int
	h := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
		},
	})

	req := withScope(httptest.NewRequest(http.MethodGet, "/accounts", nil), testScope())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 50 || gotOffset != 0 {
		t.Fatalf("expected default paging 50/0, got %d/%d", gotLimit, gotOffset)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Accounts) != 2 {
		t.Fatalf("unexpected list response %+v", resp)
	}
}

func TestAccountHandler_Summary(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		summariesFn: func(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error) {
			return []*usecase.AccountSummary{
				{
					Account:          &domain.Account{ID: "acc-1", Name: "Till"},
					TotalDebit:       decimal.RequireFromString("100.00"),
					TotalCredit:      decimal.RequireFromString("40.00"),
					TransactionCount: 5,
				},
			}, nil
		},
	})

	req := withScope(httptest.NewRequest(http.MethodGet, "/accounts/summary", nil), testScope())
	rec := httptest.NewRecorder()

	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListAccountSummariesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Summaries[0].TransactionCount != 5 {
		t.Fatalf("unexpected summary response %+v", resp)
	}
}
