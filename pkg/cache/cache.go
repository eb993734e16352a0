package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrInvalidTTL indicates a write without a positive TTL
	ErrInvalidTTL = errors.New("cache ttl must be positive")
)

// Cache is the key/value capability the repositories read through.
//
// Every write carries a TTL. An entry observed past its expiry by Get or
// Exists is evicted and reported as a miss.
type Cache interface {
	// Get returns the stored value or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key holds an unexpired value.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
