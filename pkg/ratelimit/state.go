// Package ratelimit gates incoming API requests per client.
//
// Each client key (authenticated user, else client IP) is counted in two
// sliding windows: a per-minute burst window and a longer period window.
// Counting is done by go-chi/httprate; counters live in process or, when
// Redis is configured, in Redis so that every instance shares them.
package ratelimit

import (
	"time"
)

// Window names, used in metrics, logs and rejection messages.
const (
	WindowMinute = "minute"
	WindowPeriod = "period"
)

// Redis key prefix for shared counters.
const RedisKeyPrefix = "swapi:rate_limit"

// WindowState is one window's view of a client.
type WindowState struct {
	// Window name (minute or period)
	Window string `json:"window"`

	// Limit is the request allowance for the window.
	Limit int `json:"limit"`

	// Used is the sliding-window request estimate.
	Used int `json:"used"`

	// ResetAt is when the current fixed window rolls over.
	ResetAt time.Time `json:"reset_at"`
}

// Remaining returns the requests left in the window, never negative.
func (w WindowState) Remaining() int {
	if r := w.Limit - w.Used; r > 0 {
		return r
	}
	return 0
}

// Exceeded reports whether the window allows no further request.
func (w WindowState) Exceeded() bool {
	return w.Used >= w.Limit
}

// TimeUntilReset returns the duration until the window rolls over.
// Returns 0 if the reset time has already passed.
func (w WindowState) TimeUntilReset(now time.Time) time.Duration {
	d := w.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// State is a client's current rate limit status.
type State struct {
	Key          string        `json:"key"`
	Blocked      bool          `json:"blocked"`
	BlockedUntil time.Time     `json:"blocked_until,omitempty"`
	Windows      []WindowState `json:"windows"`
}

// Window returns the named window, if tracked.
func (s *State) Window(name string) (WindowState, bool) {
	for _, w := range s.Windows {
		if w.Window == name {
			return w, true
		}
	}
	return WindowState{}, false
}

// Allowed reports whether the client may make another request.
func (s *State) Allowed() bool {
	if s.Blocked {
		return false
	}
	for _, w := range s.Windows {
		if w.Exceeded() {
			return false
		}
	}
	return true
}

// RetryAfter returns how long the client must wait before a request can
// succeed. Returns 0 when the client is allowed.
func (s *State) RetryAfter(now time.Time) time.Duration {
	var wait time.Duration
	if s.Blocked {
		wait = s.BlockedUntil.Sub(now)
	}
	for _, w := range s.Windows {
		if w.Exceeded() {
			if d := w.TimeUntilReset(now); d > wait {
				wait = d
			}
		}
	}
	if wait < 0 {
		return 0
	}
	return wait
}
