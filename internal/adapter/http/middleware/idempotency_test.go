package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubReplayStore struct {
	seen    bool
	stored  []byte
	err     error
	updates [][]byte
}

func (s *stubReplayStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	return s.seen, s.stored, s.err
}

func (s *stubReplayStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updates = append(s.updates, response)
	return nil
}

func postPayment(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/inv-1/payments", strings.NewReader(`{"amount":"50"}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store := &stubReplayStore{seen: true, stored: []byte(`{"id":"pay-1"}`)}
	var handlerRan bool

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})).ServeHTTP(rr, postPayment("key-1"))

	if handlerRan {
		t.Error("handler ran for a replayed key")
	}
	if rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("replay header missing")
	}
	if rr.Body.String() != `{"id":"pay-1"}` {
		t.Errorf("body = %s, want the stored response", rr.Body.String())
	}
}

func TestIdempotency_InFlightKeyRunsHandler(t *testing.T) {
	// The first request is still running; the sentinel must not be
	// replayed as if it were a response.
	store := &stubReplayStore{seen: true, stored: []byte(processingSentinel)}
	var handlerRan bool

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		w.Write([]byte(`{}`))
	})).ServeHTTP(rr, postPayment("key-2"))

	if !handlerRan {
		t.Error("handler must run while the key is still processing")
	}
}

func TestIdempotency_StoreErrorFailsRequest(t *testing.T) {
	store := &stubReplayStore{err: context.DeadlineExceeded}
	var handlerRan bool

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})).ServeHTTP(rr, postPayment("key-3"))

	if handlerRan {
		t.Error("handler ran despite an unverifiable key")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestIdempotency_FailedResponseIsNotStored(t *testing.T) {
	store := &stubReplayStore{}

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "amount exceeds balance due", http.StatusUnprocessableEntity)
	})).ServeHTTP(rr, postPayment("key-4"))

	if len(store.updates) != 0 {
		t.Errorf("stored %d responses, want none for a 422", len(store.updates))
	}
}

func TestIdempotency_SuccessIsStored(t *testing.T) {
	store := &stubReplayStore{}

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"pay-9"}`))
	})).ServeHTTP(rr, postPayment("key-5"))

	if len(store.updates) != 1 || string(store.updates[0]) != `{"id":"pay-9"}` {
		t.Errorf("updates = %q, want the created payment stored once", store.updates)
	}
}

func TestIdempotency_ReadsAndKeylessWritesPassThrough(t *testing.T) {
	store := &stubReplayStore{seen: true, stored: []byte(`{"id":"stale"}`)}

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil),
		postPayment(""),
	} {
		rr := httptest.NewRecorder()
		var handlerRan bool
		NewIdempotencyMiddleware(store).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		})).ServeHTTP(rr, req)

		if !handlerRan {
			t.Errorf("%s without a key must reach the handler", req.Method)
		}
	}
}
