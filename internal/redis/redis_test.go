package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"mockinterview/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	client, err := NewRedisClient(&config.Config{Redis: config.RedisConfig{Host: host, Port: port}})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSetNXAndReleaseIfOwner(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := "test:lock:" + strconv.FormatInt(time.Now().UnixNano(), 10)

	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "owner-b", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetNX should lose: ok=%v err=%v", ok, err)
	}

	if err := client.ReleaseIfOwner(ctx, key, "owner-b"); err != nil {
		t.Fatalf("release by non owner: %v", err)
	}
	if got, err := client.Get(ctx, key); err != nil || got != "owner-a" {
		t.Fatalf("non owner must not release: got=%q err=%v", got, err)
	}
	if err := client.ReleaseIfOwner(ctx, key, "owner-a"); err != nil {
		t.Fatalf("release by owner: %v", err)
	}
	if _, err := client.Get(ctx, key); err != ErrCacheMiss {
		t.Fatalf("expected key removed, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.Set(context.Background(), "k", "v", time.Second); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close nil client: %v", err)
	}
	if c.Raw() != nil {
		t.Fatalf("raw of nil client should be nil")
	}
}
