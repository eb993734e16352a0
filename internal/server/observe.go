package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gusttavosants/StarWars/pkg/apperr"
	"github.com/gusttavosants/StarWars/pkg/audit"
	"github.com/gusttavosants/StarWars/pkg/auth"
	"github.com/gusttavosants/StarWars/pkg/metrics"
)

// Defaults for the analytics and audit query parameters.
const (
	defaultTopLimit   = 10
	defaultTrailDays  = 7
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

type failureKey struct{}

// failure carries the error kind written by writeError back out to the
// audit middleware.
type failure struct {
	kind    string
	message string
}

func noteFailure(r *http.Request, kind, message string) {
	if f, ok := r.Context().Value(failureKey{}).(*failure); ok {
		f.kind = kind
		f.message = message
	}
}

// auditRequests records one audit event per request: api_error for
// responses of 400 and above, api_request otherwise.
func (s *Server) auditRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		f := &failure{}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(context.WithValue(r.Context(), failureKey{}, f))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		user := auth.UserOf(r)
		endpoint := metrics.RoutePattern(r)

		if status >= http.StatusBadRequest {
			s.deps.Audit.LogAPIError(r.Context(), user, endpoint, status, f.kind, f.message, clientIP(r))
			return
		}
		s.deps.Audit.LogAPIRequest(r.Context(), user, endpoint, r.Method, status, time.Since(start), clientIP(r))
	})
}

func (s *Server) analyticsRoutes(r chi.Router) {
	tracker := s.deps.Analytics

	r.Get("/performance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, tracker.Performance())
	})
	r.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]any{"endpoints": tracker.Endpoints()})
	})
	r.Get("/endpoints/top", func(w http.ResponseWriter, r *http.Request) {
		limit, err := limitParam(r, defaultTopLimit, maxEventLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"endpoints": tracker.TopEndpoints(limit)})
	})
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]any{"users": tracker.Users()})
	})
	r.Get("/users/top", func(w http.ResponseWriter, r *http.Request) {
		limit, err := limitParam(r, defaultTopLimit, maxEventLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"users": tracker.TopUsers(limit)})
	})
	r.Get("/hourly", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, tracker.Hourly())
	})
}

func (s *Server) auditRoutes(r chi.Router) {
	log := s.deps.Audit

	r.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, log.Summary())
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		filter, err := eventFilter(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		events := log.Query(filter)
		writeJSON(w, r, http.StatusOK, map[string]any{"events": nonNil(events), "total": len(events)})
	})

	r.Get("/user/{user}", func(w http.ResponseWriter, r *http.Request) {
		days, err := intParam(r.URL.Query(), "days", defaultTrailDays)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if days < 1 {
			writeError(w, r, apperr.Validation("days must be greater than or equal to 1"))
			return
		}
		user := pathParam(r, "user")
		trail := log.UserTrail(user, time.Now().Add(-time.Duration(days)*24*time.Hour))
		writeJSON(w, r, http.StatusOK, map[string]any{
			"user_id":      user,
			"days":         days,
			"events":       nonNil(trail),
			"total_events": len(trail),
		})
	})

	r.Get("/suspicious", func(w http.ResponseWriter, r *http.Request) {
		found := log.Suspicious()
		writeJSON(w, r, http.StatusOK, map[string]any{"suspicious_activities": nonNil(found), "total": len(found)})
	})

	r.Get("/ip/{ip}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, log.IPActivity(pathParam(r, "ip")))
	})

	r.Get("/security-alerts", func(w http.ResponseWriter, r *http.Request) {
		summary := log.Summary()
		writeJSON(w, r, http.StatusOK, map[string]any{
			"total_alerts":  summary.TotalSecurityAlerts,
			"recent_alerts": nonNil(summary.RecentAlerts),
		})
	})
}

func limitParam(r *http.Request, def, maxLimit int) (int, error) {
	limit, err := intParam(r.URL.Query(), "limit", def)
	if err != nil {
		return 0, err
	}
	if limit < 1 || limit > maxLimit {
		return 0, apperr.Validation("limit must be between 1 and " + strconv.Itoa(maxLimit))
	}
	return limit, nil
}

// eventFilter reads type, user_id, since, until (RFC 3339) and limit.
func eventFilter(r *http.Request) (audit.QueryFilter, error) {
	values := r.URL.Query()
	f := audit.QueryFilter{
		Type:   audit.EventType(values.Get("type")),
		UserID: values.Get("user_id"),
	}

	var err error
	if f.Limit, err = limitParam(r, defaultEventLimit, maxEventLimit); err != nil {
		return f, err
	}
	if f.Since, err = timeParam(values.Get("since"), "since"); err != nil {
		return f, err
	}
	if f.Until, err = timeParam(values.Get("until"), "until"); err != nil {
		return f, err
	}
	return f, nil
}

func timeParam(v, name string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperr.Validation(name + " must be an RFC 3339 timestamp")
	}
	return t, nil
}
