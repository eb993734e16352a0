package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

// Config selects and tunes the cache backend.
type Config struct {
	// RedisURL selects the Redis backend when set (redis://host:6379/0)
	RedisURL string

	// DialTimeout bounds the startup PING
	DialTimeout time.Duration
}

// New returns a RedisCache when cfg.RedisURL is set and reachable, and a
// MemoryCache otherwise. An unreachable Redis is an error, not a fallback.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Cache, error) {
	if cfg.RedisURL == "" {
		logger.Info().Str("backend", layerMemory).Msg("Cache backend selected")
		return NewMemoryCache(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, apperr.Cache("parse redis url", err)
	}

	client := redis.NewClient(opts)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	rc := NewRedisCache(client)
	if err := rc.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info().
		Str("backend", layerRedis).
		Str("addr", opts.Addr).
		Int("db", opts.DB).
		Msg("Cache backend selected")

	return rc, nil
}
