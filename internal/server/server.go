// Package server is the HTTP presentation layer: the chi router, its
// middleware chain and the handlers that map services onto JSON endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/analytics"
	"github.com/gusttavosants/StarWars/pkg/audit"
	"github.com/gusttavosants/StarWars/pkg/auth"
	"github.com/gusttavosants/StarWars/pkg/cache"
	"github.com/gusttavosants/StarWars/pkg/config"
	"github.com/gusttavosants/StarWars/pkg/logging"
	"github.com/gusttavosants/StarWars/pkg/metrics"
	"github.com/gusttavosants/StarWars/pkg/ratelimit"
	"github.com/gusttavosants/StarWars/pkg/service"
)

// Deps are the collaborators the router serves. JWT, Limiter and Cache
// may be nil: authentication, rate limiting and the readiness cache
// check are then skipped.
type Deps struct {
	Config *config.Config

	Characters *service.CharacterService
	Films      *service.FilmService
	Planets    *service.PlanetService
	Starships  *service.StarshipService

	Cache     cache.Cache
	JWT       *auth.JWTManager
	Limiter   *ratelimit.Limiter
	Analytics *analytics.Tracker
	Audit     *audit.Log

	Logger zerolog.Logger
}

// Server owns the router.
type Server struct {
	deps    Deps
	router  chi.Router
	logger  zerolog.Logger
	started time.Time
}

// New builds the router. Analytics and Audit default to fresh in-memory
// instances when nil.
func New(deps Deps) *Server {
	if deps.Config == nil {
		panic("server: config cannot be nil")
	}
	if deps.Analytics == nil {
		deps.Analytics = analytics.NewTracker(deps.Logger)
	}
	if deps.Audit == nil {
		deps.Audit = audit.NewLog(deps.Config.Audit.MaxEvents, deps.Logger)
	}

	s := &Server{
		deps:    deps,
		router:  chi.NewRouter(),
		logger:  deps.Logger,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Analytics returns the request tracker.
func (s *Server) Analytics() *analytics.Tracker { return s.deps.Analytics }

// Audit returns the audit log.
func (s *Server) Audit() *audit.Log { return s.deps.Audit }

func (s *Server) routes() {
	r := s.router

	// The user is resolved before logging, analytics and audit so that
	// each of them sees the authenticated subject.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth.OptionalUser(s.deps.JWT, s.logger, s.onInvalidToken))
	r.Use(logging.RequestLogger(s.logger, auth.UserOf))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.deps.Config.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)
	r.Use(s.deps.Analytics.Middleware(auth.UserOf))
	r.Use(s.auditRequests)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errMethodNotAllowed)
	})

	r.Get("/", s.handleWelcome)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.deps.Limiter != nil {
			r.Use(s.deps.Limiter.Middleware(ratelimit.ClientKey(auth.UserOf), writeError, s.onRateLimited))
			r.Get("/rate-limit", s.handleRateLimitStatus)
		}

		r.Route("/characters", s.characterRoutes)
		r.Route("/films", s.filmRoutes)
		r.Route("/planets", s.planetRoutes)
		r.Route("/starships", s.starshipRoutes)

		r.Route("/analytics", s.analyticsRoutes)
		r.Route("/audit", func(r chi.Router) {
			r.Use(auth.RequireUser(writeError))
			s.auditRoutes(r)
		})
	})
}

func (s *Server) onInvalidToken(r *http.Request, err error) {
	s.deps.Audit.LogAuthFailure(r.Context(), "", err.Error(), clientIP(r))
}

func (s *Server) onRateLimited(r *http.Request, key, window string) {
	s.deps.Audit.LogRateLimitExceeded(r.Context(), auth.UserOf(r), key, window, clientIP(r))
}
