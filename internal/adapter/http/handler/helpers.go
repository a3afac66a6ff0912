package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/adapter/http/middleware"
	"github.com/okiba/bookd/internal/domain"
)

// callerScope extracts the scope placed on the request by the scope
// middleware. The middleware rejects scopeless requests, so a miss here is
// a wiring bug and surfaces as a 401.
func callerScope(w http.ResponseWriter, r *http.Request) (domain.Scope, bool) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "missing caller scope")
	}
	return scope, ok
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps a domain error to an HTTP status and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	status := mapDomainError(err)
	writeError(w, status, http.StatusText(status), err.Error())
}

// mapDomainError maps domain errors to HTTP status codes. A missing
// capability is a 403; any other validation failure is a 400.
func mapDomainError(err error) int {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
		transitionErr *domain.InvalidTransitionError
		parseErr      *domain.ParseError
		reconcileErr  *domain.ReconciliationError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field == "capabilities" {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &transitionErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &reconcileErr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAccountFrozen),
		errors.Is(err, domain.ErrAccountInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return dto.ValidateRequest(dst)
}
