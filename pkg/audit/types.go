// Package audit keeps an in-process log of security-relevant API events:
// requests, errors, authentication failures, rate limit rejections and
// the alerts derived from them.
package audit

import (
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventAPIRequest           EventType = "api_request"
	EventAPIError             EventType = "api_error"
	EventResourceAccessed     EventType = "resource_accessed"
	EventAuthenticationFailed EventType = "authentication_failed"
	EventRateLimitExceeded    EventType = "rate_limit_exceeded"
	EventSecurityAlert        EventType = "security_alert"
)

// Anonymous is the user recorded for unauthenticated requests.
const Anonymous = "anonymous"

// Event is one audit record.
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Type         EventType      `json:"event_type"`
	UserID       string         `json:"user_id"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// Alert is raised when a pattern of events looks suspicious.
type Alert struct {
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
	AlertType string         `json:"alert_type"`
	IPAddress string         `json:"ip_address,omitempty"`
	Severity  string         `json:"severity"`
	Details   map[string]any `json:"details,omitempty"`
}

// Summary aggregates the whole log.
type Summary struct {
	TotalEvents         int               `json:"total_events"`
	TotalUsers          int               `json:"total_users"`
	TotalSecurityAlerts int               `json:"total_security_alerts"`
	EventBreakdown      map[EventType]int `json:"event_breakdown"`
	RecentAlerts        []Alert           `json:"recent_alerts"`
}

// Suspicion flags a user whose recent activity crossed a threshold.
type Suspicion struct {
	UserID string `json:"user_id"`
	Issue  string `json:"issue"`
	Count  int    `json:"count"`
}

// IPActivity aggregates the events from one address.
type IPActivity struct {
	IPAddress    string            `json:"ip_address"`
	TotalEvents  int               `json:"total_events"`
	RecentEvents int               `json:"recent_events"`
	UniqueUsers  int               `json:"unique_users"`
	EventTypes   map[EventType]int `json:"event_types"`
}

// QueryFilter selects events. Zero fields match everything.
type QueryFilter struct {
	Type   EventType
	UserID string
	Since  time.Time
	Until  time.Time
	Limit  int
}
