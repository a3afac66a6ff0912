package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// inFlight marks a key whose first request has not finished yet. Callers
// seeing it run the operation themselves; the ledger's own idempotency
// (client_request_id, pending import items) makes that safe.
const inFlight = "processing"

// IdempotencyStore keeps replayable responses keyed by the caller's
// Idempotency-Key header.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) key(key string) string {
	return "idempotency:" + key
}

// CheckAndSet claims the key if it is new and reports what an earlier
// request stored. Returns (seen, storedResponse, error); a nil response
// with seen=true means the first request is still running.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	k := s.key(key)

	stored, err := s.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		return true, stored, nil
	case !errors.Is(err, redis.Nil):
		return false, nil, err
	}

	if response != nil {
		return false, nil, s.client.Set(ctx, k, response, ttl).Err()
	}

	// Claim the key with the in-flight marker so a concurrent retry sees
	// it instead of racing the first request.
	claimed, err := s.client.SetNX(ctx, k, inFlight, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if claimed {
		return false, nil, nil
	}

	// Lost the race; report whatever the winner has stored so far.
	stored, err = s.client.Get(ctx, k).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, nil, err
	}
	return true, stored, nil
}

// Update replaces the in-flight marker with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), response, ttl).Err()
}
