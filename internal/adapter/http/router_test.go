package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/okiba/bookd/internal/adapter/http/handler"
	apimiddleware "github.com/okiba/bookd/internal/adapter/http/middleware"
)

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		AccountHandler:        handler.NewAccountHandler(nil),
		TransactionHandler:    handler.NewTransactionHandler(nil),
		TransferHandler:       handler.NewTransferHandler(nil),
		PartyHandler:          handler.NewPartyHandler(nil),
		InvoiceHandler:        handler.NewInvoiceHandler(nil),
		CategoryHandler:       handler.NewCategoryHandler(nil),
		ImportHandler:         handler.NewImportHandler(nil, 1<<20),
		BackupHandler:         handler.NewBackupHandler(nil),
		SnapshotHandler:       handler.NewSnapshotHandler(nil),
		ReconciliationHandler: handler.NewReconciliationHandler(nil),
		HealthHandler:         handler.NewHealthHandler(nil, nil),
		Logger:                zerolog.Nop(),
		CORSAllowedOrigins:    []string{"*"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_APIRequiresOwnerHeader(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-Owner-ID, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRouter, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Router")
	}

	want := map[string]string{
		"POST /api/v1/accounts/":             "",
		"GET /api/v1/accounts/summary":       "",
		"PATCH /api/v1/accounts/{id}":        "",
		"POST /api/v1/transactions/":         "",
		"DELETE /api/v1/transactions/{id}":   "",
		"POST /api/v1/transfers/":            "",
		"GET /api/v1/parties/{id}/ledger":    "",
		"POST /api/v1/invoices/{id}/status":  "",
		"DELETE /api/v1/invoices/{id}":       "",
		"POST /api/v1/imports/":              "",
		"PUT /api/v1/imports/{id}/mapping":   "",
		"POST /api/v1/imports/{id}/execute":  "",
		"GET /api/v1/backup/export":          "",
		"POST /api/v1/snapshots/recompute":   "",
		"GET /api/v1/reconciliation/":        "",
		"POST /api/v1/categories/":           "",
	}

	found := map[string]bool{}
	walkFn := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := method + " " + route
		if _, ok := want[key]; ok {
			found[key] = true
		}
		return nil
	}
	if err := chi.Walk(chiRouter, walkFn); err != nil {
		t.Fatalf("failed to walk routes: %v", err)
	}

	var missing []string
	for key := range want {
		if !found[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Fatalf("routes not registered: %s", strings.Join(missing, ", "))
	}
}
