package server

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/auth"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/ratelimit"
)

var (
	errRouteNotFound = &apperr.Error{
		Kind:    apperr.KindNotFound,
		Status:  http.StatusNotFound,
		Message: "route not found",
	}
	errMethodNotAllowed = &apperr.Error{
		Kind:    "method_not_allowed",
		Status:  http.StatusMethodNotAllowed,
		Message: "method not allowed",
	}
)

// readyTimeout bounds the cache ping of /ready.
const readyTimeout = 2 * time.Second

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	app := s.deps.Config.App
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Welcome to the " + app.Name,
		"version": app.Version,
		"endpoints": map[string]string{
			"characters": "/api/characters",
			"films":      "/api/films",
			"planets":    "/api/planets",
			"starships":  "/api/starships",
			"analytics":  "/api/analytics/performance",
			"audit":      "/api/audit/summary",
			"health":     "/health",
			"metrics":    "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	app := s.deps.Config.App
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "healthy",
		"app":         app.Name,
		"version":     app.Version,
		"environment": app.Environment,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the cache backend answers a ping. A
// disabled cache or one without health reporting is always ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "disabled"
	if s.deps.Cache != nil {
		status = "ok"
		if p, ok := s.deps.Cache.(cache.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("Readiness check failed")
				unavailable := apperr.Cache("cache backend unavailable", err)
				unavailable.Status = http.StatusServiceUnavailable
				writeError(w, r, unavailable)
				return
			}
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready", "cache": status})
}

type rateLimitWindow struct {
	ratelimit.WindowState
	Remaining int `json:"remaining"`
}

type rateLimitStatus struct {
	Key               string            `json:"key"`
	Allowed           bool              `json:"allowed"`
	Blocked           bool              `json:"blocked"`
	RetryAfterSeconds int               `json:"retry_after_seconds"`
	Backend           string            `json:"backend"`
	Windows           []rateLimitWindow `json:"windows"`
}

// handleRateLimitStatus reports the caller's own usage. The request
// itself has already been counted.
func (s *Server) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	key, err := ratelimit.ClientKey(auth.UserOf)(r)
	if err != nil {
		writeError(w, r, apperr.Validation("cannot determine client key"))
		return
	}

	state, err := s.deps.Limiter.Status(key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := rateLimitStatus{
		Key:               state.Key,
		Allowed:           state.Allowed(),
		Blocked:           state.Blocked,
		RetryAfterSeconds: int(math.Ceil(state.RetryAfter(time.Now()).Seconds())),
		Backend:           s.deps.Limiter.Backend(),
		Windows:           make([]rateLimitWindow, len(state.Windows)),
	}
	for i, win := range state.Windows {
		resp.Windows[i] = rateLimitWindow{WindowState: win, Remaining: win.Remaining()}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
