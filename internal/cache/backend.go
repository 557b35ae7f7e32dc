// Package cache is the best-effort acceleration layer in front of the database.
// Nothing in it is authoritative: every failure is logged and surfaces to the
// caller as a miss or a skipped write.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a Backend when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// DefaultTTL is how long entity entries live
const DefaultTTL = 600 * time.Second

// Backend is a string key/value store with expiry
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	// SetManyEx writes all entries with one round trip where the backend allows it
	SetManyEx(ctx context.Context, entries map[string]string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
