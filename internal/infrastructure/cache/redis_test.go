package cache

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"matchsync/internal/config"
)

func TestNewRedis_NotConfiguredBypasses(t *testing.T) {
	var buf bytes.Buffer
	r := NewRedis(config.RedisConfig{}, log.New(&buf, "", 0))

	if r.Enabled() {
		t.Fatalf("expected cache to be disabled without an address")
	}
	if !strings.Contains(buf.String(), "bypassing cache") {
		t.Fatalf("expected bypass log line, got %q", buf.String())
	}

	ctx := context.Background()
	if err := r.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var out map[string]string
	ok, err := r.GetJSON(ctx, "k", &out)
	if err != nil || ok {
		t.Fatalf("GetJSON = %v, %v; want miss without error", ok, err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.Enabled() {
		t.Fatalf("expected bypass cache to report disabled")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRedis_UnreachableBypasses(t *testing.T) {
	// Port 1 on loopback refuses connections.
	r := NewRedis(config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	if r.Enabled() {
		t.Fatalf("expected cache to be disabled when ping fails")
	}
}

func TestNilRedisIsSafe(t *testing.T) {
	var r *Redis
	ok, err := r.GetJSON(context.Background(), "k", &struct{}{})
	if ok || err != nil {
		t.Fatalf("nil cache GetJSON = %v, %v", ok, err)
	}
	if err := r.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("nil cache Delete: %v", err)
	}
}
