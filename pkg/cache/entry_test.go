package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ttl  time.Duration
		at   time.Time
		want bool
	}{
		{"fresh entry", time.Hour, now, false},
		{"just before expiry", time.Minute, now.Add(59 * time.Second), false},
		{"exactly at expiry", time.Minute, now.Add(time.Minute), true},
		{"long expired", time.Second, now.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry([]byte("v"), tt.ttl, now)
			if got := entry.IsExpired(tt.at); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ttl  time.Duration
		at   time.Time
		want time.Duration
	}{
		{"one hour remaining", time.Hour, now, time.Hour},
		{"five minutes remaining", 10 * time.Minute, now.Add(5 * time.Minute), 5 * time.Minute},
		{"already expired", time.Minute, now.Add(time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry(nil, tt.ttl, now)
			if got := entry.TTL(tt.at); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
