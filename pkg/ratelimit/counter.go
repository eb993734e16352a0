package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCounter is an httprate.LimitCounter whose per-window counters live
// in Redis, so all instances share one view of each client.
//
// Backend failures are logged and counted; the counter then reports zero
// usage so that a Redis outage does not reject traffic.
type RedisCounter struct {
	redis        *redis.Client
	prefix       string
	windowLength time.Duration
	timeout      time.Duration
	logger       zerolog.Logger
}

var _ httprate.LimitCounter = (*RedisCounter)(nil)

// NewRedisCounter creates a counter storing keys under prefix.
func NewRedisCounter(client *redis.Client, prefix string, logger zerolog.Logger) *RedisCounter {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisCounter{
		redis:   client,
		prefix:  prefix,
		timeout: 500 * time.Millisecond,
		logger:  logger,
	}
}

// Config implements httprate.LimitCounter.
func (c *RedisCounter) Config(_ int, windowLength time.Duration) {
	c.windowLength = windowLength
}

// Increment implements httprate.LimitCounter.
func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

// IncrementBy adds amount to the key's counter for currentWindow. The
// counter expires once it can no longer serve as a previous window.
func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	k := c.counterKey(key, currentWindow)

	pipe := c.redis.TxPipeline()
	pipe.IncrBy(ctx, k, int64(amount))
	pipe.Expire(ctx, k, 3*c.windowLength)
	if _, err := pipe.Exec(ctx); err != nil {
		c.backendError("increment", err)
	}
	return nil
}

// Get returns the counts of the current and previous windows.
func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	pipe := c.redis.Pipeline()
	curr := pipe.Get(ctx, c.counterKey(key, currentWindow))
	prev := pipe.Get(ctx, c.counterKey(key, previousWindow))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.backendError("get", err)
		return 0, 0, nil
	}

	return count(curr), count(prev), nil
}

func (c *RedisCounter) counterKey(key string, window time.Time) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, int64(c.windowLength.Seconds()),
		strconv.FormatUint(httprate.LimitCounterKey(key, window), 36))
}

func (c *RedisCounter) backendError(op string, err error) {
	rateLimitBackendErrors.WithLabelValues(op).Inc()
	c.logger.Warn().Err(err).Str("operation", op).Msg("Rate limit counter unavailable, allowing request")
}

func count(cmd *redis.StringCmd) int {
	n, err := cmd.Int()
	if err != nil {
		return 0
	}
	return n
}
