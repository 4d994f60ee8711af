package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/periodledger/internal/usecase"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "period:chk:2024-03", "1", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "period:chk:2024-03")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if val != "1" {
		t.Fatalf("expected 1, got %s", val)
	}

	if ttl := mr.TTL(DefaultCachePrefix + "period:chk:2024-03"); ttl != 0 {
		t.Fatalf("expected no expiry, got %s", ttl)
	}
}

func TestCacheMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "absent")
	if !errors.Is(err, usecase.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "open", "0", 30*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	if _, err := cache.Get(ctx, "open"); !errors.Is(err, usecase.ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "foo", "bar", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "foo"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "foo"); !errors.Is(err, usecase.ErrCacheMiss) {
		t.Fatalf("expected miss getting deleted key, got %v", err)
	}
}

func TestCacheServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, err := NewCache(client).Get(context.Background(), "foo")
	if err == nil || errors.Is(err, usecase.ErrCacheMiss) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCacheKeysAreNamespaced(t *testing.T) {
	client, mr := newTestRedisClient(t)
	ctx := context.Background()

	mr.Set("foreign", "x")
	if err := NewCache(client).Set(ctx, "period:sav:2024-01", "0", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	keys := ledgerKeys(mr, DefaultCachePrefix)
	if len(keys) != 1 || keys[0] != DefaultCachePrefix+"period:sav:2024-01" {
		t.Fatalf("expected one namespaced key, got %v", keys)
	}
}
