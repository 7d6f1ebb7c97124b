package cache

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"time"
)

// NullCacheValue is stored for keys whose backing record does not exist,
// so repeated lookups of missing records do not hit the database.
const NullCacheValue = "$NULL$"

// ErrNilValue is returned by GetWithCached when the cache holds the null
// placeholder for the key.
type nilValueError struct{}

func (nilValueError) Error() string { return "cached null value" }

// ErrNilValue reports that the key is cached as non-existent.
var ErrNilValue = nilValueError{}

// GetWithCached implements the cache-aside pattern: read from cache first,
// fall back to the loader, then backfill the cache. A missing record is
// cached as NullCacheValue for nullTTL to absorb repeated misses.
func GetWithCached[T any](ctx context.Context, c Cache, key string, ttl time.Duration, nullTTL time.Duration, loader func(ctx context.Context) (*T, error)) (*T, error) {
	raw, err := c.Get(ctx, key)
	if err == nil && raw != "" {
		if raw == NullCacheValue {
			return nil, ErrNilValue
		}
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		// Corrupt entry, drop it and reload.
		_ = c.Del(ctx, key)
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if value == nil {
		_ = c.Set(ctx, key, NullCacheValue, nullTTL)
		return nil, ErrNilValue
	}

	if data, err := json.Marshal(value); err == nil {
		_ = c.Set(ctx, key, string(data), JitterTTL(ttl))
	}
	return value, nil
}

// JitterTTL subtracts a random amount up to ttl/10 so entries written
// together do not all expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	max := int64(ttl / 10)
	if max <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
