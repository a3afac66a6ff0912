package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okiba/bookd/internal/adapter/http/middleware"
	"github.com/okiba/bookd/internal/domain"
)

// withScope attaches a caller scope the way the scope middleware would.
func withScope(req *http.Request, scope domain.Scope) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ScopeContextKey, scope)
	return req.WithContext(ctx)
}

func testScope() domain.Scope {
	return domain.Scope{OwnerID: "owner-1"}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "validation",
			err:  &domain.ValidationError{Field: "amount", Message: "must be positive"},
			want: http.StatusBadRequest,
		},
		{
			name: "missing capability",
			err:  &domain.ValidationError{Field: "capabilities", Message: "missing capability ledger:write"},
			want: http.StatusForbidden,
		},
		{
			name: "not found",
			err:  &domain.NotFoundError{Resource: "account", ID: "acc-1"},
			want: http.StatusNotFound,
		},
		{
			name: "conflict",
			err:  &domain.ConflictError{Message: "duplicate"},
			want: http.StatusConflict,
		},
		{
			name: "invalid transition",
			err:  &domain.InvalidTransitionError{From: domain.InvoicePaid, To: domain.InvoiceDraft},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "parse failure",
			err:  &domain.ParseError{Code: "unreadable", Message: "bad file"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "frozen account",
			err:  domain.ErrAccountFrozen,
			want: http.StatusConflict,
		},
		{
			name: "inactive account",
			err:  domain.ErrAccountInactive,
			want: http.StatusConflict,
		},
		{
			name: "unknown",
			err:  context.DeadlineExceeded,
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.want {
				t.Fatalf("mapDomainError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=abc", nil)

	if got := parseIntQuery(req, "limit", 50); got != 25 {
		t.Fatalf("limit = %d, want 25", got)
	}
	if got := parseIntQuery(req, "offset", 10); got != 10 {
		t.Fatalf("offset default = %d, want 10", got)
	}
	if got := parseIntQuery(req, "bad", 7); got != 7 {
		t.Fatalf("non-numeric = %d, want default 7", got)
	}
}

func TestCallerScope_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()

	_, ok := callerScope(rec, req)
	if ok {
		t.Fatal("callerScope should fail without middleware")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
