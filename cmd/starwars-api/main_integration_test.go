//go:build integration

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gusttavosants/StarWars/internal/testutil"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/ratelimit"
)

// setupTestRedis starts a Redis container and returns its URL.
func setupTestRedis(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cleanup := func() {
		redisC.Terminate(ctx)
	}

	return "redis://" + host + ":" + port.Port() + "/0", cleanup
}

func TestNewApp_Redis(t *testing.T) {
	redisURL, cleanup := setupTestRedis(t)
	defer cleanup()

	mock := testutil.NewMockSWAPI()
	defer mock.Close()

	cfg := testConfig(mock.BaseURL())
	cfg.Cache.RedisURL = redisURL

	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	if _, ok := a.cache.(*cache.RedisCache); !ok {
		t.Fatalf("cache = %T, want *cache.RedisCache", a.cache)
	}

	t.Run("shared rate limiter", func(t *testing.T) {
		l, err := a.newLimiter()
		if err != nil {
			t.Fatalf("newLimiter() error = %v", err)
		}
		if l.Backend() != ratelimit.BackendRedis {
			t.Errorf("Backend() = %q, want %q", l.Backend(), ratelimit.BackendRedis)
		}
	})

	t.Run("cached by id", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			a.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/films/1", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("GET /api/films/1 = %d, want 200", w.Code)
			}
		}
		if n := mock.GetPathCount("/api/films/1/"); n != 1 {
			t.Errorf("upstream calls = %d, want 1", n)
		}
	})

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		a.cache.(*cache.RedisCache).Close()

		w := httptest.NewRecorder()
		a.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Cache.RedisURL = "redis://127.0.0.1:1/0"

	if _, err := newApp(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("newApp() error = nil, want unreachable redis error")
	}
}
