// Package analytics keeps in-process statistics about served requests:
// per-endpoint and per-user counters, response times, error rates and
// hourly volume.
package analytics

import (
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/metrics"
)

// DefaultRetention is how long Prune keeps request records by default.
const DefaultRetention = 7 * 24 * time.Hour

// Record is one served request.
type Record struct {
	Timestamp    time.Time     `json:"timestamp"`
	Endpoint     string        `json:"endpoint"`
	Method       string        `json:"method"`
	UserID       string        `json:"user_id"`
	ResponseTime time.Duration `json:"response_time"`
	StatusCode   int           `json:"status_code"`
}

// EndpointStats aggregates one endpoint.
type EndpointStats struct {
	Endpoint          string    `json:"endpoint"`
	TotalRequests     int       `json:"total_requests"`
	ErrorCount        int       `json:"error_count"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	LastAccessed      time.Time `json:"last_accessed"`

	totalTime time.Duration
}

// UserStats aggregates one user.
type UserStats struct {
	UserID            string    `json:"user_id"`
	TotalRequests     int       `json:"total_requests"`
	EndpointsAccessed []string  `json:"endpoints_accessed"`
	LastRequest       time.Time `json:"last_request"`

	endpoints map[string]struct{}
}

// Performance summarizes every retained record.
type Performance struct {
	TotalRequests     int     `json:"total_requests"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
	ErrorRate         float64 `json:"error_rate"`
	UniqueUsers       int     `json:"unique_users"`
	UniqueEndpoints   int     `json:"unique_endpoints"`
}

// Tracker collects request records. It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	records   []Record
	endpoints map[string]*EndpointStats
	users     map[string]*UserStats
	now       func() time.Time
	logger    zerolog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		endpoints: make(map[string]*EndpointStats),
		users:     make(map[string]*UserStats),
		now:       time.Now,
		logger:    logger,
	}
}

// Record stores one served request. Status codes of 400 and above count
// as errors.
func (t *Tracker) Record(endpoint, method, user string, elapsed time.Duration, status int) {
	now := t.now().UTC()

	t.mu.Lock()
	t.records = append(t.records, Record{
		Timestamp:    now,
		Endpoint:     endpoint,
		Method:       method,
		UserID:       user,
		ResponseTime: elapsed,
		StatusCode:   status,
	})

	es, ok := t.endpoints[endpoint]
	if !ok {
		es = &EndpointStats{Endpoint: endpoint}
		t.endpoints[endpoint] = es
	}
	es.TotalRequests++
	es.totalTime += elapsed
	es.LastAccessed = now
	if status >= 400 {
		es.ErrorCount++
	}

	us, ok := t.users[user]
	if !ok {
		us = &UserStats{UserID: user, endpoints: make(map[string]struct{})}
		t.users[user] = us
	}
	us.TotalRequests++
	us.endpoints[endpoint] = struct{}{}
	us.LastRequest = now
	t.mu.Unlock()

	t.logger.Debug().
		Str("endpoint", endpoint).
		Str("user_id", user).
		Dur("response_time", elapsed).
		Int("status", status).
		Msg("Request recorded")
}

func (es *EndpointStats) snapshot() EndpointStats {
	out := *es
	if es.TotalRequests > 0 {
		out.AvgResponseTimeMS = round2(ms(es.totalTime) / float64(es.TotalRequests))
	}
	return out
}

func (us *UserStats) snapshot() UserStats {
	out := *us
	out.EndpointsAccessed = make([]string, 0, len(us.endpoints))
	for e := range us.endpoints {
		out.EndpointsAccessed = append(out.EndpointsAccessed, e)
	}
	sort.Strings(out.EndpointsAccessed)
	out.endpoints = nil
	return out
}

// Endpoint returns the stats for one endpoint.
func (t *Tracker) Endpoint(endpoint string) (EndpointStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	es, ok := t.endpoints[endpoint]
	if !ok {
		return EndpointStats{}, false
	}
	return es.snapshot(), true
}

// Endpoints returns the stats of every endpoint, sorted by name.
func (t *Tracker) Endpoints() []EndpointStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]EndpointStats, 0, len(t.endpoints))
	for _, es := range t.endpoints {
		out = append(out, es.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// User returns the stats for one user.
func (t *Tracker) User(user string) (UserStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	us, ok := t.users[user]
	if !ok {
		return UserStats{}, false
	}
	return us.snapshot(), true
}

// Users returns the stats of every user, sorted by id.
func (t *Tracker) Users() []UserStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]UserStats, 0, len(t.users))
	for _, us := range t.users {
		out = append(out, us.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// TopEndpoints returns up to limit endpoints by request count.
func (t *Tracker) TopEndpoints(limit int) []EndpointStats {
	all := t.Endpoints()
	sort.SliceStable(all, func(i, j int) bool { return all[i].TotalRequests > all[j].TotalRequests })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// TopUsers returns up to limit users by request count.
func (t *Tracker) TopUsers(limit int) []UserStats {
	all := t.Users()
	sort.SliceStable(all, func(i, j int) bool { return all[i].TotalRequests > all[j].TotalRequests })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Performance summarizes the retained records. ErrorRate is a percentage.
func (t *Tracker) Performance() Performance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := Performance{
		TotalRequests:   len(t.records),
		UniqueUsers:     len(t.users),
		UniqueEndpoints: len(t.endpoints),
	}
	if len(t.records) == 0 {
		return p
	}

	var total time.Duration
	errs := 0
	for _, r := range t.records {
		total += r.ResponseTime
		if r.StatusCode >= 400 {
			errs++
		}
	}
	p.AvgResponseTimeMS = round2(ms(total) / float64(len(t.records)))
	p.ErrorRate = round2(float64(errs) / float64(len(t.records)) * 100)
	return p
}

// Hourly counts retained records per UTC hour, keyed "2006-01-02 15:00".
func (t *Tracker) Hourly() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int)
	for _, r := range t.records {
		out[r.Timestamp.Truncate(time.Hour).Format("2006-01-02 15:00")]++
	}
	return out
}

// Prune drops records older than maxAge and returns how many were
// removed. Aggregated endpoint and user counters are kept.
func (t *Tracker) Prune(maxAge time.Duration) int {
	cutoff := t.now().UTC().Add(-maxAge)

	t.mu.Lock()
	kept := t.records[:0]
	for _, r := range t.records {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := len(t.records) - len(kept)
	t.records = kept
	t.mu.Unlock()

	t.logger.Info().Int("removed", removed).Msg("Pruned old request records")
	return removed
}

// Middleware records every request under its chi route pattern.
func (t *Tracker) Middleware(user func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			u := ""
			if user != nil {
				u = user(r)
			}
			if u == "" {
				u = "anonymous"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			t.Record(metrics.RoutePattern(r), r.Method, u, time.Since(start), status)
		})
	}
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
