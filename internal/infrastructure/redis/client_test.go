package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient_ConnectsAndPings(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(context.Background(), fmt.Sprintf("redis://%s", srv.Addr()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewClient_BadURL(t *testing.T) {
	if _, err := NewClient(context.Background(), "://bad-url"); err == nil {
		t.Fatal("expected an error for an unparseable url")
	}
}

func TestNewClient_ServerDown(t *testing.T) {
	srv := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", srv.Addr())
	srv.Close()

	if _, err := NewClient(context.Background(), url); err == nil {
		t.Fatal("expected a ping failure once the server is gone")
	}
}
