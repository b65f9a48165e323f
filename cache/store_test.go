package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCacheStoreTest(t *testing.T, maxTTL time.Duration) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "cb", maxTTL)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestSetAndGet(t *testing.T) {
	store, _, done := newCacheStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	key := store.ContactKey("owner-1", "contact-1")
	stored, err := store.Set(ctx, key, []byte(`{"id":"contact-1"}`), time.Minute)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !stored {
		t.Fatal("expected entry to be stored")
	}

	data, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `{"id":"contact-1"}` {
		t.Fatalf("unexpected value: %s", data)
	}
}

func TestGetMissIsNotAnError(t *testing.T) {
	store, _, done := newCacheStoreTest(t, 0)
	defer done()

	_, ok, err := store.Get(context.Background(), store.AllKey())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestSetRefusesNonPositiveTTL(t *testing.T) {
	store, mr, done := newCacheStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	key := store.OwnerListKey("owner-1")
	for _, ttl := range []time.Duration{0, -time.Second} {
		stored, err := store.Set(ctx, key, []byte("[]"), ttl)
		if err != nil {
			t.Fatalf("set(ttl=%v): %v", ttl, err)
		}
		if stored {
			t.Fatalf("expected set(ttl=%v) to be skipped", ttl)
		}
	}
	if mr.Exists(key) {
		t.Fatal("expected no key to be written")
	}
}

func TestSetCapsTTLButNeverExtends(t *testing.T) {
	store, _, done := newCacheStoreTest(t, 30*time.Second)
	defer done()
	ctx := context.Background()

	// Above the cap: clamped down.
	longKey := store.ContactKey("owner-1", "long")
	if _, err := store.Set(ctx, longKey, []byte("v"), 5*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	ttl, err := store.TTL(ctx, longKey)
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl > 30*time.Second {
		t.Fatalf("expected TTL capped at 30s, got %v", ttl)
	}

	// Below the cap: left alone.
	shortKey := store.ContactKey("owner-1", "short")
	if _, err := store.Set(ctx, shortKey, []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	ttl, err = store.TTL(ctx, shortKey)
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl > 10*time.Second {
		t.Fatalf("expected TTL <= 10s, got %v", ttl)
	}
}

func TestEntryExpires(t *testing.T) {
	store, mr, done := newCacheStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	key := store.ContactKey("owner-1", "contact-1")
	if _, err := store.Set(ctx, key, []byte("v"), 20*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(21 * time.Second)

	_, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected entry to have expired")
	}
}

func TestInvalidateContactClearsAllScopes(t *testing.T) {
	store, mr, done := newCacheStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	keys := []string{
		store.ContactKey("owner-1", "contact-1"),
		store.OwnerListKey("owner-1"),
		store.AllKey(),
	}
	for _, k := range keys {
		if _, err := store.Set(ctx, k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := store.InvalidateContact(ctx, "owner-1", "contact-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, k := range keys {
		if mr.Exists(k) {
			t.Fatalf("expected %s to be invalidated", k)
		}
	}

	// Unrelated owners remain cached.
	other := store.OwnerListKey("owner-2")
	if _, err := store.Set(ctx, other, []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.InvalidateContact(ctx, "owner-1", "contact-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if !mr.Exists(other) {
		t.Fatal("expected unrelated owner's entry to survive")
	}
}

func TestKeysAreScopedByOwner(t *testing.T) {
	store, _, done := newCacheStoreTest(t, 0)
	defer done()

	if store.ContactKey("owner-1", "c-1") == store.ContactKey("owner-2", "c-1") {
		t.Fatal("expected contact keys to differ per owner")
	}
	if store.OwnerListKey("owner-1") == store.OwnerListKey("owner-2") {
		t.Fatal("expected list keys to differ per owner")
	}
}

func TestUnavailableRedisWrapsSentinel(t *testing.T) {
	store, mr, done := newCacheStoreTest(t, 0)
	defer done()
	mr.Close()

	_, _, err := store.Get(context.Background(), store.AllKey())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Set(context.Background(), store.AllKey(), []byte("v"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
