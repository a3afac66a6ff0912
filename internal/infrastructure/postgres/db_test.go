package postgres

import (
	"context"
	"testing"
	"time"
)

func TestNewPoolWithConfig_RejectsMalformedURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	if err == nil {
		t.Fatal("expected an error for a malformed database url")
	}
}

func TestNewPoolWithConfig_FailsWhenUnreachable(t *testing.T) {
	cfg := PoolConfig{
		DatabaseURL:    "postgres://bookd@127.0.0.1:1/bookd",
		MaxConns:       1,
		ConnectTimeout: 100 * time.Millisecond,
	}

	if _, err := NewPoolWithConfig(context.Background(), cfg); err == nil {
		t.Fatal("expected an error when nothing listens on the target port")
	}
}
