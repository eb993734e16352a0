package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

// Prometheus metrics for request rate limiting.
var (
	rateLimitAllowed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_rate_limit_allowed_total",
		Help: "Requests admitted by the rate limiter",
	}, []string{"backend"})

	rateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"backend", "window"})

	rateLimitBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_rate_limit_backend_errors_total",
		Help: "Rate limit counter backend failures",
	}, []string{"operation"})
)

// Backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the request allowances.
type Config struct {
	// PerMinute is the burst allowance per rolling minute.
	PerMinute int

	// Requests allowed per Period.
	Requests int
	Period   time.Duration
}

// DefaultConfig matches the public API defaults: 10/min, 100/hour.
func DefaultConfig() Config {
	return Config{PerMinute: 10, Requests: 100, Period: time.Hour}
}

// Limits overrides the allowances for one client.
type Limits struct {
	PerMinute int `json:"per_minute"`
	Requests  int `json:"requests"`
}

// RejectFunc observes a rejected request.
type RejectFunc func(r *http.Request, key, window string)

// DenyFunc writes the rejection response.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

type window struct {
	name    string
	length  time.Duration
	limit   int
	limiter *httprate.RateLimiter
}

// Limiter gates requests per client key across a minute window and a
// period window.
type Limiter struct {
	backend string
	windows []*window
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	limits  map[string]Limits
	blocked map[string]time.Time
}

// NewLimiter creates an in-process limiter.
func NewLimiter(cfg Config, logger zerolog.Logger) (*Limiter, error) {
	return newLimiter(cfg, BackendMemory, nil, logger)
}

// NewRedisLimiter creates a limiter whose counters live in Redis.
func NewRedisLimiter(cfg Config, client *redis.Client, logger zerolog.Logger) (*Limiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return newLimiter(cfg, BackendRedis, client, logger)
}

func newLimiter(cfg Config, backend string, client *redis.Client, logger zerolog.Logger) (*Limiter, error) {
	if cfg.PerMinute <= 0 || cfg.Requests <= 0 || cfg.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit config: per_minute=%d requests=%d period=%s",
			cfg.PerMinute, cfg.Requests, cfg.Period)
	}

	l := &Limiter{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		limits:  make(map[string]Limits),
		blocked: make(map[string]time.Time),
	}

	specs := []struct {
		name    string
		length  time.Duration
		limit   int
		headers httprate.ResponseHeaders
	}{
		{WindowMinute, time.Minute, cfg.PerMinute, httprate.ResponseHeaders{
			Limit:     "X-RateLimit-Limit-Minute",
			Remaining: "X-RateLimit-Remaining-Minute",
		}},
		{WindowPeriod, cfg.Period, cfg.Requests, httprate.ResponseHeaders{
			Limit:     "X-RateLimit-Limit",
			Remaining: "X-RateLimit-Remaining",
			Reset:     "X-RateLimit-Reset",
		}},
	}

	for _, s := range specs {
		opts := []httprate.Option{httprate.WithResponseHeaders(s.headers)}
		if client != nil {
			opts = append(opts, httprate.WithLimitCounter(
				NewRedisCounter(client, RedisKeyPrefix+":"+s.name, logger)))
		}
		l.windows = append(l.windows, &window{
			name:    s.name,
			length:  s.length,
			limit:   s.limit,
			limiter: httprate.NewRateLimiter(s.limit, s.length, opts...),
		})
	}

	return l, nil
}

// Backend returns "memory" or "redis".
func (l *Limiter) Backend() string { return l.backend }

// SetUserLimit overrides the allowances for key.
func (l *Limiter) SetUserLimit(key string, limits Limits) {
	l.mu.Lock()
	l.limits[key] = limits
	l.mu.Unlock()
	l.logger.Info().Str("key", key).Int("per_minute", limits.PerMinute).Int("requests", limits.Requests).Msg("Custom rate limit set")
}

// ResetUserLimit restores the default allowances for key.
func (l *Limiter) ResetUserLimit(key string) {
	l.mu.Lock()
	delete(l.limits, key)
	l.mu.Unlock()
}

// Block rejects every request from key for d.
func (l *Limiter) Block(key string, d time.Duration) {
	l.mu.Lock()
	l.blocked[key] = l.now().Add(d)
	l.mu.Unlock()
	l.logger.Warn().Str("key", key).Dur("duration", d).Msg("Client blocked")
}

// Unblock lifts a block on key.
func (l *Limiter) Unblock(key string) {
	l.mu.Lock()
	delete(l.blocked, key)
	l.mu.Unlock()
}

func (l *Limiter) blockedUntil(key string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.blocked[key]
	if !ok {
		return time.Time{}, false
	}
	if !l.now().Before(until) {
		delete(l.blocked, key)
		return time.Time{}, false
	}
	return until, true
}

func (l *Limiter) limitFor(key string, w *window) int {
	l.mu.RLock()
	custom, ok := l.limits[key]
	l.mu.RUnlock()
	if !ok {
		return w.limit
	}
	switch {
	case w.name == WindowMinute && custom.PerMinute > 0:
		return custom.PerMinute
	case w.name == WindowPeriod && custom.Requests > 0:
		return custom.Requests
	}
	return w.limit
}

// Status returns key's current usage without counting a request.
func (l *Limiter) Status(key string) (*State, error) {
	state := &State{Key: key}
	if until, ok := l.blockedUntil(key); ok {
		state.Blocked = true
		state.BlockedUntil = until
	}

	now := l.now().UTC()
	for _, w := range l.windows {
		_, rate, err := w.limiter.Status(key)
		if err != nil {
			return nil, fmt.Errorf("rate limit status for %s: %w", w.name, err)
		}
		state.Windows = append(state.Windows, WindowState{
			Window:  w.name,
			Limit:   l.limitFor(key, w),
			Used:    int(math.Round(rate)),
			ResetAt: now.Truncate(w.length).Add(w.length),
		})
	}
	return state, nil
}

// Middleware counts each request against key(r). A rejected request is
// reported to onReject (may be nil) and answered through deny with an
// apperr rate_limited error and a Retry-After header.
func (l *Limiter) Middleware(key httprate.KeyFunc, deny DenyFunc, onReject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k, err := key(r)
			if err != nil {
				l.logger.Warn().Err(err).Msg("Rate limit key unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if until, ok := l.blockedUntil(k); ok {
				l.reject(w, r, k, "blocked", until.Sub(l.now()), deny, onReject)
				return
			}

			for _, win := range l.windows {
				ctx := httprate.WithRequestLimit(r.Context(), l.limitFor(k, win))
				if win.limiter.OnLimit(w, r.WithContext(ctx), k) {
					l.reject(w, r, k, win.name, win.length, deny, onReject)
					return
				}
			}

			rateLimitAllowed.WithLabelValues(l.backend).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) reject(w http.ResponseWriter, r *http.Request, key, window string, retry time.Duration, deny DenyFunc, onReject RejectFunc) {
	rateLimitRejections.WithLabelValues(l.backend, window).Inc()

	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))

	l.logger.Warn().
		Str("key", key).
		Str("window", window).
		Int("retry_after", secs).
		Str("path", r.URL.Path).
		Msg("Rate limit exceeded")

	if onReject != nil {
		onReject(r, key, window)
	}
	deny(w, r, apperr.RateLimited(fmt.Sprintf("rate limit exceeded (%s)", window)))
}

// ClientKey keys requests by user when user returns one, else by client
// IP. Keys are namespaced so a username cannot collide with an address.
func ClientKey(user func(*http.Request) string) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		if user != nil {
			if u := user(r); u != "" {
				return "user:" + u, nil
			}
		}
		ip, err := httprate.KeyByIP(r)
		if err != nil {
			return "", err
		}
		return "ip:" + ip, nil
	}
}
