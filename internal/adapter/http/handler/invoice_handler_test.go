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

type invoiceServiceStub struct {
	createFn  func(ctx context.Context, scope domain.Scope, input usecase.CreateInvoiceInput) (*domain.Invoice, error)
	getFn     func(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error)
	listFn    func(ctx context.Context, scope domain.Scope, filter usecase.InvoiceFilter) ([]*domain.Invoice, error)
	statusFn  func(ctx context.Context, scope domain.Scope, id string, to domain.InvoiceStatus) (*domain.Invoice, error)
	paymentFn func(ctx context.Context, scope domain.Scope, invoiceID string, input usecase.RecordPaymentInput) (*domain.Invoice, error)
	deleteFn  func(ctx context.Context, scope domain.Scope, id string) error
}

func (s *invoiceServiceStub) CreateInvoice(ctx context.Context, scope domain.Scope, input usecase.CreateInvoiceInput) (*domain.Invoice, error) {
	return s.createFn(ctx, scope, input)
}

func (s *invoiceServiceStub) GetInvoice(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error) {
	return s.getFn(ctx, scope, id)
}

func (s *invoiceServiceStub) ListInvoices(ctx context.Context, scope domain.Scope, filter usecase.InvoiceFilter) ([]*domain.Invoice, error) {
	return s.listFn(ctx, scope, filter)
}

func (s *invoiceServiceStub) UpdateStatus(ctx context.Context, scope domain.Scope, id string, to domain.InvoiceStatus) (*domain.Invoice, error) {
	return s.statusFn(ctx, scope, id, to)
}

func (s *invoiceServiceStub) RecordPayment(ctx context.Context, scope domain.Scope, invoiceID string, input usecase.RecordPaymentInput) (*domain.Invoice, error) {
	return s.paymentFn(ctx, scope, invoiceID, input)
}

func (s *invoiceServiceStub) DeleteInvoice(ctx context.Context, scope domain.Scope, id string) error {
	return s.deleteFn(ctx, scope, id)
}

func routeRequest(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestInvoiceHandler_Create_Success(t *testing.T) {
	invoice := &domain.Invoice{
		ID:         "inv-1",
		Type:       domain.InvoiceSale,
		PartyID:    "p1",
		Number:     "INV-001",
		Status:     domain.InvoiceDraft,
		GrandTotal: decimal.RequireFromString("21.98"),
	}

	var captured usecase.CreateInvoiceInput
	h := NewInvoiceHandler(&invoiceServiceStub{
		createFn: func(ctx context.Context, scope domain.Scope, input usecase.CreateInvoiceInput) (*domain.Invoice, error) {
			captured = input
			return invoice, nil
		},
	})

	body, _ := json.Marshal(dto.CreateInvoiceRequest{
		Type:    "sale",
		PartyID: "p1",
		Date:    time.Now(),
		Items: []dto.InvoiceItemRequest{
			{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.99")},
		},
	})
	req := withScope(httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured.Items) != 1 || captured.Type != domain.InvoiceSale {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestInvoiceHandler_Create_RequiresItems(t *testing.T) {
	h := NewInvoiceHandler(&invoiceServiceStub{})

	body, _ := json.Marshal(dto.CreateInvoiceRequest{Type: "sale", PartyID: "p1", Date: time.Now()})
	req := withScope(httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewReader(body)), testScope())
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without items, got %d", rec.Code)
	}
}

func TestInvoiceHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	h := NewInvoiceHandler(&invoiceServiceStub{
		statusFn: func(ctx context.Context, scope domain.Scope, id string, to domain.InvoiceStatus) (*domain.Invoice, error) {
			return nil, &domain.InvalidTransitionError{From: domain.InvoicePaid, To: domain.InvoiceDraft}
		},
	})

	body, _ := json.Marshal(dto.UpdateInvoiceStatusRequest{Status: "draft"})
	req := withScope(routeRequest(httptest.NewRequest(http.MethodPost, "/invoices/inv-1/status", bytes.NewReader(body)), "inv-1"), testScope())
	rec := httptest.NewRecorder()

	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestInvoiceHandler_RecordPayment(t *testing.T) {
	invoice := &domain.Invoice{
		ID:         "inv-1",
		Status:     domain.InvoicePartial,
		AmountPaid: decimal.RequireFromString("50.00"),
	}

	var captured usecase.RecordPaymentInput
	h := NewInvoiceHandler(&invoiceServiceStub{
		paymentFn: func(ctx context.Context, scope domain.Scope, invoiceID string, input usecase.RecordPaymentInput) (*domain.Invoice, error) {
			captured = input
			return invoice, nil
		},
	})

	body, _ := json.Marshal(dto.RecordPaymentRequest{
		Amount: decimal.RequireFromString("50.00"),
		Method: "bank",
		Date:   time.Now(),
	})
	req := withScope(routeRequest(httptest.NewRequest(http.MethodPost, "/invoices/inv-1/payments", bytes.NewReader(body)), "inv-1"), testScope())
	rec := httptest.NewRecorder()

	h.RecordPayment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Method != "bank" || !captured.Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestInvoiceHandler_Delete_DraftOnly(t *testing.T) {
	h := NewInvoiceHandler(&invoiceServiceStub{
		deleteFn: func(ctx context.Context, scope domain.Scope, id string) error {
			return &domain.ConflictError{Message: "only draft invoices can be deleted"}
		},
	})

	req := withScope(routeRequest(httptest.NewRequest(http.MethodDelete, "/invoices/inv-1", nil), "inv-1"), testScope())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
