package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

const layerRedis = "redis"

// RedisKeyPrefix namespaces cache entries, so Clear leaves other data in
// the same database (such as shared rate-limit counters) untouched.
const RedisKeyPrefix = "swapi:cache:"

// clearBatch is the SCAN page size used by Clear.
const clearBatch = 500

// RedisCache is a Cache backed by Redis. Values are stored as JSON
// entries with a matching Redis expiry, so a key disappears server-side
// even if nobody reads it.
type RedisCache struct {
	redis *redis.Client
	now   func() time.Time
}

// NewRedisCache creates a cache on top of an existing Redis client.
func NewRedisCache(redisClient *redis.Client) *RedisCache {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisCache{
		redis: redisClient,
		now:   time.Now,
	}
}

// Get retrieves the value stored under key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.load(ctx, key, "get")
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
		}
		return nil, err
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return entry.Value, nil
}

// Set stores value under key with TTL applied both to the entry and to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	data, err := json.Marshal(NewEntry(value, ttl, c.now()))
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return apperr.Cache("marshal cache entry", err)
	}

	if err := c.redis.SetEx(ctx, RedisKeyPrefix+key, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return apperr.Cache("redis setex", err)
	}

	return nil
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, RedisKeyPrefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return apperr.Cache("redis del", err)
	}
	return nil
}

// Exists reports whether key holds an unexpired entry. The entry is
// decoded so the expiry check matches Get.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.load(ctx, key, "exists"); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear removes every cache entry. Keys outside RedisKeyPrefix are kept.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, RedisKeyPrefix+"*", clearBatch).Result()
		if err != nil {
			CacheErrors.WithLabelValues("clear").Inc()
			return apperr.Cache("redis scan", err)
		}
		if len(keys) > 0 {
			if err := c.redis.Unlink(ctx, keys...).Err(); err != nil {
				CacheErrors.WithLabelValues("clear").Inc()
				return apperr.Cache("redis unlink", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return apperr.Cache("redis ping", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

// Client returns the underlying Redis client.
func (c *RedisCache) Client() *redis.Client {
	return c.redis
}

func (c *RedisCache) load(ctx context.Context, key, op string) (Entry, error) {
	data, err := c.redis.Get(ctx, RedisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(op).Inc()
		return Entry{}, apperr.Cache("redis get", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(op).Inc()
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired(c.now()) {
		_ = c.Delete(ctx, key)
		CacheEvictions.WithLabelValues(layerRedis).Inc()
		return Entry{}, ErrCacheMiss
	}

	return entry, nil
}
