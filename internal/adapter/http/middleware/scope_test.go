package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okiba/bookd/internal/domain"
)

func TestScopeMiddleware(t *testing.T) {
	var captured domain.Scope
	var called bool

	handler := Scope()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		captured, _ = ScopeFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing owner", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if called {
			t.Fatal("handler should not run without an owner")
		}
	})

	t.Run("owner only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("X-Owner-ID", "owner-1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.OwnerID != "owner-1" || captured.OrgID != "" {
			t.Fatalf("scope = %+v", captured)
		}
		if len(captured.Caps) != 0 {
			t.Fatalf("caps should be empty, got %v", captured.Caps)
		}
	})

	t.Run("full headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("X-Owner-ID", "owner-1")
		req.Header.Set("X-Org-ID", "org-9")
		req.Header.Set("X-Capabilities", "ledger:read, ledger:write")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if captured.OrgID != "org-9" {
			t.Fatalf("OrgID = %q", captured.OrgID)
		}
		if !captured.Caps.Has(domain.CapLedgerRead) || !captured.Caps.Has(domain.CapLedgerWrite) {
			t.Fatalf("caps = %v", captured.Caps)
		}
		if err := captured.Require(domain.CapBackup); err == nil {
			t.Fatal("Require(backup) should fail")
		}
	})
}
