package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okiba/bookd/internal/domain"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// ScopeContextKey is the context key for the caller scope.
	ScopeContextKey ContextKey = "scope"

	headerOwnerID      = "X-Owner-ID"
	headerOrgID        = "X-Org-ID"
	headerCapabilities = "X-Capabilities"
)

// Scope extracts the caller scope from request headers. The owner header is
// mandatory; an absent capabilities header means the caller is trusted with
// everything.
func Scope() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := strings.TrimSpace(r.Header.Get(headerOwnerID))
			if ownerID == "" {
				writeScopeError(w, "missing "+headerOwnerID+" header")
				return
			}

			scope := domain.Scope{
				OwnerID: ownerID,
				OrgID:   strings.TrimSpace(r.Header.Get(headerOrgID)),
			}
			if caps := r.Header.Get(headerCapabilities); caps != "" {
				scope.Caps = domain.NewCapabilitySet(strings.Split(caps, ",")...)
			}

			ctx := context.WithValue(r.Context(), ScopeContextKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ScopeFromContext extracts the caller scope from context.
func ScopeFromContext(ctx context.Context) (domain.Scope, bool) {
	scope, ok := ctx.Value(ScopeContextKey).(domain.Scope)
	return scope, ok
}

func writeScopeError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(http.StatusUnauthorized),
		"message": message,
	})
}
