package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	internalcache "github.com/surgestack/surgecast-engine/internal/cache"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Fatalf("missing key = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Errorf("deleted key = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, internalcache.ErrCacheMiss) {
		t.Errorf("expired key = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("zero-TTL entry should persist, got %q, %v", got, err)
	}
}
