package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/accounts", "/api/v1/accounts"},
		{"/api/v1/accounts/01HX5K3M", "/api/v1/accounts/:id"},
		{"/api/v1/accounts/summary", "/api/v1/accounts/:id"},
		{"/api/v1/parties/01HX5K3M/ledger", "/api/v1/parties/:id/ledger"},
		{"/api/v1/invoices/01HX5K3M/payments", "/api/v1/invoices/:id/payments"},
		{"/api/v1/imports/01HX5K3M/execute", "/api/v1/imports/:id/execute"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
