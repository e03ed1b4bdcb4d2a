package services

import (
	"sync"
	"time"
)

// Status is the single human-readable status slot.
type Status struct {
	Message   string    `json:"message"`
	Error     bool      `json:"error"`
	UpdatedAt time.Time `json:"updated_at"`
	// ExpiresAt is zero for messages that stay until replaced.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// statusBoard holds the current Status. Transient messages clear themselves
// once their TTL has passed.
type statusBoard struct {
	mu  sync.Mutex
	cur Status
}

func (b *statusBoard) set(now time.Time, msg string, isErr bool, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = Status{Message: msg, Error: isErr, UpdatedAt: now}
	if ttl > 0 {
		b.cur.ExpiresAt = now.Add(ttl)
	}
}

func (b *statusBoard) clear(now time.Time) {
	b.set(now, "", false, 0)
}

func (b *statusBoard) get(now time.Time) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cur.ExpiresAt.IsZero() && !now.Before(b.cur.ExpiresAt) {
		b.cur = Status{UpdatedAt: b.cur.ExpiresAt}
	}
	return b.cur
}
