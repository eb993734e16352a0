package cache

import (
	"context"
	"sync"
	"time"
)

const layerMemory = "memory"

// MemoryCache is an in-process Cache guarded by a single mutex.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the value stored under key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.lookup(key)
	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerMemory).Inc()
	return entry.Value, nil
}

// Set stores value under key for ttl.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = NewEntry(stored, ttl, m.now())
	CacheEntries.Set(float64(len(m.entries)))
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	CacheEntries.Set(float64(len(m.entries)))
	m.mu.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired value, evicting it otherwise.
func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)
	return ok, nil
}

// Clear removes every entry.
func (m *MemoryCache) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	CacheEntries.Set(0)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *MemoryCache) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// lookup must be called with mu held.
func (m *MemoryCache) lookup(key string) (Entry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if entry.IsExpired(m.now()) {
		delete(m.entries, key)
		CacheEvictions.WithLabelValues(layerMemory).Inc()
		CacheEntries.Set(float64(len(m.entries)))
		return Entry{}, false
	}
	return entry, true
}
