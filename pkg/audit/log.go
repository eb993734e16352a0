package audit

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Thresholds for derived alerts and suspicion reports.
const (
	AuthFailureAlertThreshold = 3
	AuthFailureAlertWindow    = 5 * time.Minute
	RequestVolumeThreshold    = 100
	recentAlertCount          = 10
)

// DefaultMaxEvents bounds the in-memory log.
const DefaultMaxEvents = 10000

// Log is an in-memory audit log safe for concurrent use. When full, the
// oldest tenth of the events is dropped.
type Log struct {
	mu      sync.RWMutex
	events  []Event
	counts  map[EventType]int
	byUser  map[string][]int
	alerts  []Alert
	maxLen  int
	dropped int
	now     func() time.Time
	logger  zerolog.Logger
}

// NewLog creates a log holding at most maxLen events.
func NewLog(maxLen int, logger zerolog.Logger) *Log {
	if maxLen <= 0 {
		maxLen = DefaultMaxEvents
	}
	return &Log{
		events: make([]Event, 0, 64),
		counts: make(map[EventType]int),
		byUser: make(map[string][]int),
		maxLen: maxLen,
		now:    time.Now,
		logger: logger,
	}
}

// Record stores e, filling ID, Timestamp and RequestID when unset.
func (l *Log) Record(ctx context.Context, e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.UserID == "" {
		e.UserID = Anonymous
	}
	if e.RequestID == "" {
		e.RequestID = middleware.GetReqID(ctx)
	}

	l.mu.Lock()
	if len(l.events) >= l.maxLen {
		l.trimLocked(l.maxLen / 10)
	}
	l.events = append(l.events, e)
	l.counts[e.Type]++
	l.byUser[e.UserID] = append(l.byUser[e.UserID], l.dropped+len(l.events)-1)
	l.mu.Unlock()

	l.logger.Debug().
		Str("event_id", e.ID).
		Str("event_type", string(e.Type)).
		Str("user_id", e.UserID).
		Msg("Audit event recorded")
	return e
}

// trimLocked drops the n oldest events. byUser indexes are absolute
// positions offset by dropped.
func (l *Log) trimLocked(n int) {
	if n <= 0 {
		n = 1
	}
	if n > len(l.events) {
		n = len(l.events)
	}
	l.events = append(l.events[:0:0], l.events[n:]...)
	l.dropped += n
	for user, idx := range l.byUser {
		kept := idx[:0]
		for _, i := range idx {
			if i >= l.dropped {
				kept = append(kept, i)
			}
		}
		if len(kept) == 0 {
			delete(l.byUser, user)
			continue
		}
		l.byUser[user] = kept
	}
}

// LogAPIRequest records a served request.
func (l *Log) LogAPIRequest(ctx context.Context, user, endpoint, method string, status int, elapsed time.Duration, ip string) {
	l.Record(ctx, Event{
		Type:         EventAPIRequest,
		UserID:       user,
		ResourceType: "api",
		IPAddress:    ip,
		StatusCode:   status,
		Details: map[string]any{
			"endpoint":         endpoint,
			"method":           method,
			"response_time_ms": float64(elapsed.Microseconds()) / 1000,
		},
	})
}

// LogAPIError records a request that ended in an error response.
func (l *Log) LogAPIError(ctx context.Context, user, endpoint string, status int, kind, message, ip string) {
	l.Record(ctx, Event{
		Type:       EventAPIError,
		UserID:     user,
		IPAddress:  ip,
		StatusCode: status,
		Details: map[string]any{
			"endpoint": endpoint,
			"error":    kind,
			"message":  message,
		},
	})
}

// LogResourceAccess records a read of a single resource.
func (l *Log) LogResourceAccess(ctx context.Context, user, resourceType, resourceID, ip string) {
	l.Record(ctx, Event{
		Type:         EventResourceAccessed,
		UserID:       user,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ip,
	})
}

// LogRateLimitExceeded records a rejected request.
func (l *Log) LogRateLimitExceeded(ctx context.Context, user, key, window, ip string) {
	l.Record(ctx, Event{
		Type:       EventRateLimitExceeded,
		UserID:     user,
		IPAddress:  ip,
		StatusCode: 429,
		Details:    map[string]any{"key": key, "window": window},
	})
}

// LogAuthFailure records a failed authentication. Reaching
// AuthFailureAlertThreshold failures within AuthFailureAlertWindow raises
// a security alert. Anonymous failures are counted per client IP, and are
// not counted at all without one.
func (l *Log) LogAuthFailure(ctx context.Context, user, reason, ip string) {
	e := l.Record(ctx, Event{
		Type:      EventAuthenticationFailed,
		UserID:    user,
		IPAddress: ip,
		Details:   map[string]any{"reason": reason},
	})

	if e.UserID == Anonymous && ip == "" {
		return
	}

	recent := l.userEvents(e.UserID, EventAuthenticationFailed, e.Timestamp.Add(-AuthFailureAlertWindow))
	count := len(recent)
	if e.UserID == Anonymous {
		count = 0
		for _, f := range recent {
			if f.IPAddress == ip {
				count++
			}
		}
	}

	if count >= AuthFailureAlertThreshold {
		l.LogSecurityAlert(ctx, e.UserID, "multiple authentication failures", ip, map[string]any{"failures_count": count})
	}
}

// LogSecurityAlert records an alert and its audit event.
func (l *Log) LogSecurityAlert(ctx context.Context, user, alertType, ip string, details map[string]any) {
	alert := Alert{
		Timestamp: l.now().UTC(),
		UserID:    user,
		AlertType: alertType,
		IPAddress: ip,
		Severity:  "high",
		Details:   details,
	}

	l.mu.Lock()
	l.alerts = append(l.alerts, alert)
	l.mu.Unlock()

	l.logger.Warn().Str("user_id", user).Str("alert_type", alertType).Msg("Security alert")

	merged := map[string]any{"alert_type": alertType}
	for k, v := range details {
		merged[k] = v
	}
	l.Record(ctx, Event{Type: EventSecurityAlert, UserID: user, IPAddress: ip, Details: merged})
}

func (l *Log) userEvents(user string, t EventType, since time.Time) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for _, i := range l.byUser[user] {
		e := l.events[i-l.dropped]
		if (t == "" || e.Type == t) && e.Timestamp.After(since) {
			out = append(out, e)
		}
	}
	return out
}

// UserTrail returns user's events newer than since, oldest first.
func (l *Log) UserTrail(user string, since time.Time) []Event {
	trail := l.userEvents(user, "", since)
	if trail == nil {
		return []Event{}
	}
	return trail
}

// Query returns matching events, most recent first.
func (l *Log) Query(f QueryFilter) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Summary aggregates event counts and the latest alerts.
func (l *Log) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	breakdown := make(map[EventType]int, len(l.counts))
	for t, n := range l.counts {
		breakdown[t] = n
	}

	start := len(l.alerts) - recentAlertCount
	if start < 0 {
		start = 0
	}
	recent := append([]Alert{}, l.alerts[start:]...)

	return Summary{
		TotalEvents:         len(l.events),
		TotalUsers:          len(l.byUser),
		TotalSecurityAlerts: len(l.alerts),
		EventBreakdown:      breakdown,
		RecentAlerts:        recent,
	}
}

// Suspicious reports users with repeated authentication failures or an
// unusual request volume in the last hour.
func (l *Log) Suspicious() []Suspicion {
	l.mu.RLock()
	users := make([]string, 0, len(l.byUser))
	for u := range l.byUser {
		users = append(users, u)
	}
	l.mu.RUnlock()

	hourAgo := l.now().UTC().Add(-time.Hour)
	out := make([]Suspicion, 0)
	for _, u := range users {
		if n := len(l.userEvents(u, EventAuthenticationFailed, hourAgo)); n >= AuthFailureAlertThreshold {
			out = append(out, Suspicion{UserID: u, Issue: "multiple authentication failures", Count: n})
		}
		if n := len(l.userEvents(u, EventAPIRequest, hourAgo)); n > RequestVolumeThreshold {
			out = append(out, Suspicion{UserID: u, Issue: "unusual request volume", Count: n})
		}
	}
	return out
}

// IPActivity aggregates the events recorded for ip.
func (l *Log) IPActivity(ip string) IPActivity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	hourAgo := l.now().UTC().Add(-time.Hour)
	act := IPActivity{IPAddress: ip, EventTypes: make(map[EventType]int)}
	users := make(map[string]struct{})
	for _, e := range l.events {
		if e.IPAddress != ip {
			continue
		}
		act.TotalEvents++
		if e.Timestamp.After(hourAgo) {
			act.RecentEvents++
		}
		users[e.UserID] = struct{}{}
		act.EventTypes[e.Type]++
	}
	act.UniqueUsers = len(users)
	return act
}

// Cleanup drops events older than maxAge and returns how many were
// removed. Event counts are cumulative and not reduced.
func (l *Log) Cleanup(maxAge time.Duration) int {
	cutoff := l.now().UTC().Add(-maxAge)

	l.mu.Lock()
	n := 0
	for n < len(l.events) && !l.events[n].Timestamp.After(cutoff) {
		n++
	}
	if n > 0 {
		l.trimLocked(n)
	}
	l.mu.Unlock()

	l.logger.Info().Int("removed", n).Msg("Cleaned up old audit events")
	return n
}

// Len returns the number of events held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
