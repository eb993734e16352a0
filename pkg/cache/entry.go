package cache

import (
	"time"
)

// Entry is a cached value together with its expiry instant.
type Entry struct {
	// Value is the raw payload as returned by the source
	Value []byte `json:"value"`

	// ExpiresAt is fixed at write time from the TTL
	ExpiresAt time.Time `json:"expires_at"`

	// CachedAt is when the value was stored
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry stored at now that lives for ttl.
func NewEntry(value []byte, ttl time.Duration, now time.Time) Entry {
	return Entry{
		Value:     value,
		ExpiresAt: now.Add(ttl),
		CachedAt:  now,
	}
}

// IsExpired reports whether the entry is expired at now.
func (e Entry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// TTL returns the time left before expiry at now.
// Returns 0 if already expired.
func (e Entry) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
