package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

type transactionServiceStub struct {
	createFn func(ctx context.Context, scope domain.Scope, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	getFn    func(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error)
	listFn   func(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error)
	updateFn func(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateTransactionInput) (*domain.Transaction, error)
	voidFn   func(ctx context.Context, scope domain.Scope, id string) error
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, scope domain.Scope, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return s.createFn(ctx, scope, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, scope, id)
}

func (s *transactionServiceStub) ListTransactions(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	return s.listFn(ctx, scope, filter)
}

func (s *transactionServiceStub) UpdateTransaction(ctx context.Context, scope domain.Scope, id string, input usecase.UpdateTransactionInput) (*domain.Transaction, error) {
	return s.updateFn(ctx, scope, id, input)
}

func (s *transactionServiceStub) VoidTransaction(ctx context.Context, scope domain.Scope, id string) error {
	return s.voidFn(ctx, scope, id)
}

func TestTransactionHandler_Create_Success(t *testing.T) {
	tx := &domain.Transaction{
		ID:        "tx-1",
		AccountID: "acc-1",
		Type:      domain.EntryDebit,
		Amount:    decimal.RequireFromString("25.50"),
		State:     domain.TxActive,
		Source:    domain.SourceManual,
	}

	var captured usecase.CreateTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, scope domain.Scope, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			captured = input
			return tx, nil
		},
	})

	body, _ := json.Marshal(dto.CreateTransactionRequest{
		AccountID: "acc-1",
		Type:      "debit",
		Amount:    decimal.RequireFromString("25.50"),
		Date:      time.Now(),
	})
	req := withScope(httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Source != domain.SourceManual {
		t.Fatalf("expected manual source, got %q", captured.Source)
	}
}

func TestTransactionHandler_Create_FrozenAccount(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, scope domain.Scope, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			return nil, domain.ErrAccountFrozen
		},
	})

	body, _ := json.Marshal(dto.CreateTransactionRequest{
		AccountID: "acc-1",
		Type:      "credit",
		Amount:    decimal.RequireFromString("10.00"),
		Date:      time.Now(),
	})
	req := withScope(httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for frozen account, got %d", rec.Code)
	}
}

func TestTransactionHandler_List_ParsesFilters(t *testing.T) {
	var captured usecase.TransactionFilter
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
			captured = filter
			return nil, nil
		},
	})

	url := "/transactions?account_id=acc-1&type=debit&q=rent&from=2025-01-01T00:00:00Z&to=2025-02-01T00:00:00Z&min_amount=5.00&max_amount=500&limit=10&offset=20"
	req := withScope(httptest.NewRequest(http.MethodGet, url, nil), testScope())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.Type != domain.EntryDebit || captured.Query != "rent" {
		t.Fatalf("unexpected filter %+v", captured)
	}
	if captured.From == nil || captured.From.Month() != time.January {
		t.Fatalf("from = %v", captured.From)
	}
	if captured.MinAmount == nil || !captured.MinAmount.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("min_amount = %v", captured.MinAmount)
	}
	if captured.Limit != 10 || captured.Offset != 20 {
		t.Fatalf("paging = %d/%d", captured.Limit, captured.Offset)
	}
}

func TestTransactionHandler_List_RejectsBadFilters(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{})

	for _, url := range []string{
		"/transactions?type=wire",
		"/transactions?from=yesterday",
		"/transactions?min_amount=lots",
	} {
		req := withScope(httptest.NewRequest(http.MethodGet, url, nil), testScope())
		rec := httptest.NewRecorder()

		h.List(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", url, rec.Code)
		}
	}
}

func TestTransactionHandler_Void(t *testing.T) {
	var voided string
	h := NewTransactionHandler(&transactionServiceStub{
		voidFn: func(ctx context.Context, scope domain.Scope, id string) error {
			voided = id
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/transactions/tx-1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "tx-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withScope(req, testScope())
	rec := httptest.NewRecorder()

	h.Void(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if voided != "tx-1" {
		t.Fatalf("voided = %q, want tx-1", voided)
	}
}
