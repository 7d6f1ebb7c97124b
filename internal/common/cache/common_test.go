package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCacheWithConfig(&RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCacheWithConfig: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetWithCachedLoadsAndBackfills(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (*testRecord, error) {
		loads++
		return &testRecord{ID: "q1", Name: "two sum"}, nil
	}

	got, err := GetWithCached(ctx, c, "record:q1", time.Minute, time.Second, loader)
	if err != nil {
		t.Fatalf("GetWithCached: %v", err)
	}
	if got.Name != "two sum" {
		t.Fatalf("got %+v", got)
	}
	if !mr.Exists("record:q1") {
		t.Fatal("expected backfilled cache entry")
	}

	// Second read must come from cache.
	got, err = GetWithCached(ctx, c, "record:q1", time.Minute, time.Second, loader)
	if err != nil {
		t.Fatalf("GetWithCached (cached): %v", err)
	}
	if got.ID != "q1" {
		t.Fatalf("got %+v", got)
	}
	if loads != 1 {
		t.Fatalf("loader called %d times, want 1", loads)
	}
}

func TestGetWithCachedMissingRecord(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (*testRecord, error) {
		loads++
		return nil, nil
	}

	if _, err := GetWithCached(ctx, c, "record:gone", time.Minute, time.Second, loader); !errors.Is(err, ErrNilValue) {
		t.Fatalf("err = %v, want ErrNilValue", err)
	}
	if v, _ := mr.Get("record:gone"); v != NullCacheValue {
		t.Fatalf("cached %q, want null placeholder", v)
	}

	// The placeholder absorbs the next miss without a load.
	if _, err := GetWithCached(ctx, c, "record:gone", time.Minute, time.Second, loader); !errors.Is(err, ErrNilValue) {
		t.Fatalf("err = %v, want ErrNilValue", err)
	}
	if loads != 1 {
		t.Fatalf("loader called %d times, want 1", loads)
	}
}

func TestGetWithCachedCorruptEntryReloads(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set("record:bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	loader := func(ctx context.Context) (*testRecord, error) {
		return &testRecord{ID: "bad", Name: "recovered"}, nil
	}
	got, err := GetWithCached(ctx, c, "record:bad", time.Minute, time.Second, loader)
	if err != nil {
		t.Fatalf("GetWithCached: %v", err)
	}
	if got.Name != "recovered" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetWithCachedLoaderError(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := errors.New("db down")
	_, err := GetWithCached(ctx, c, "record:x", time.Minute, time.Second,
		func(ctx context.Context) (*testRecord, error) { return nil, want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("JitterTTL = %v, want within [%v, %v]", got, ttl-ttl/10, ttl)
		}
	}
	if got := JitterTTL(0); got != 0 {
		t.Fatalf("JitterTTL(0) = %v", got)
	}
}
