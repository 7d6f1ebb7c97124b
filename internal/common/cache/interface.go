package cache

import (
	"context"
	"time"
)

// Cache defines the key/value, list and pub/sub operations the judge
// pipeline needs from Redis. The interface is intentionally small so tests
// can back it with miniredis or hand-written fakes.
type Cache interface {
	// Ping verifies the connection is alive
	Ping(ctx context.Context) error

	// Close closes the underlying client
	Close() error

	// Get returns the value for key, or "" when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL (0 = no expiry).
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del removes keys.
	Del(ctx context.Context, keys ...string) error

	// LPush pushes values onto the head of a list.
	LPush(ctx context.Context, key string, values ...interface{}) error

	// RPop pops from the tail of a list, "" when the list is empty.
	RPop(ctx context.Context, key string) (string, error)

	// BRPop blocks up to timeout waiting to pop from the tail of a list.
	// Returns "" with a nil error when the wait times out.
	BRPop(ctx context.Context, timeout time.Duration, key string) (string, error)

	// LLen returns the length of a list.
	LLen(ctx context.Context, key string) (int64, error)

	// Publish sends a message on a pub/sub channel.
	Publish(ctx context.Context, channel string, message interface{}) error

	// Subscribe subscribes to a pub/sub channel. The returned Subscription
	// must be closed by the caller.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription is a live pub/sub subscription.
type Subscription interface {
	// Messages yields raw message payloads. The channel is closed when the
	// subscription is closed or the connection drops.
	Messages() <-chan string

	// Close terminates the subscription.
	Close() error
}
