package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/okiba/bookd/internal/usecase"
)

// IdempotencyKeyHeader carries the caller's replay key. Transfers have
// their own client_request_id inside the ledger; this header guards every
// other mutating endpoint (payments, invoice creation, import execution).
const IdempotencyKeyHeader = "Idempotency-Key"

const replayTTL = 24 * time.Hour

// processingSentinel is the store value while the first request is still
// in flight.
const processingSentinel = "processing"

// IdempotencyMiddleware replays the stored response for a repeated key
// instead of running the handler twice.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
}

func NewIdempotencyMiddleware(store usecase.IdempotencyStore) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store}
}

// Wrap applies replay protection to keyed mutating requests. Reads pass
// through untouched.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		seen, stored, err := m.store.CheckAndSet(r.Context(), key, nil, replayTTL)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if seen && stored != nil && string(stored) != processingSentinel {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replay", "true")
			w.Write(stored)
			return
		}

		rec := &replayRecorder{ResponseWriter: w, body: &bytes.Buffer{}, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only successful outcomes are replayable. A failed write must be
		// retryable with the same key.
		if rec.status >= 200 && rec.status < 300 {
			m.store.Update(r.Context(), key, rec.body.Bytes(), replayTTL)
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// replayRecorder keeps a copy of the response body for the store.
type replayRecorder struct {
	http.ResponseWriter

	status int
	body   *bytes.Buffer
}

func (r *replayRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *replayRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
