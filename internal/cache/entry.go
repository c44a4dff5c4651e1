package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached value with its expiry metadata.
type Entry struct {
	Key       string          `json:"key"`
	Operation string          `json:"operation,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func newEntry(key, operation string, data json.RawMessage, ttl time.Duration, now time.Time) *Entry {
	return &Entry{
		Key:       key,
		Operation: operation,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ExpiredAt reports whether the entry has expired at t.
func (e *Entry) ExpiredAt(t time.Time) bool {
	return !t.Before(e.ExpiresAt)
}

// Age returns how long ago the entry was written, measured at t.
func (e *Entry) Age(t time.Time) time.Duration {
	return t.Sub(e.CreatedAt)
}
