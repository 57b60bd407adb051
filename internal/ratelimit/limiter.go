package ratelimit

import (
	"context"
	"time"
)

// Store keeps per-key request timestamps. Implementations must drop entries
// whose age is >= window before counting.
type Store interface {
	// Take records now for key when fewer than max live entries exist and
	// reports whether it did.
	Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error)
	// Entries returns the live timestamps for key, oldest first.
	Entries(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error)
}

// Limiter allows at most max requests per key in any window-long span.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
}

// Status is a snapshot of a key's quota.
type Status struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// New creates a limiter over store.
func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Key builds the rate-limit key for a platform and client address.
func Key(platform, clientIP string) string {
	return platform + "_" + clientIP
}

// Max returns the number of requests allowed per window.
func (l *Limiter) Max() int { return l.max }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// IsAllowed records a request for key and reports whether it fits the quota.
// Rejected requests are not recorded.
func (l *Limiter) IsAllowed(ctx context.Context, key string) (bool, error) {
	return l.store.Take(ctx, key, l.now(), l.window, l.max)
}

// RemainingRequests returns how many more requests key may make right now.
func (l *Limiter) RemainingRequests(ctx context.Context, key string) (int, error) {
	entries, err := l.store.Entries(ctx, key, l.now(), l.window)
	if err != nil {
		return 0, err
	}
	remaining := l.max - len(entries)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetTime returns when the oldest request of key leaves the window. A key
// with no live requests resets now.
func (l *Limiter) ResetTime(ctx context.Context, key string) (time.Time, error) {
	now := l.now()
	entries, err := l.store.Entries(ctx, key, now, l.window)
	if err != nil {
		return time.Time{}, err
	}
	if len(entries) == 0 {
		return now, nil
	}
	return entries[0].Add(l.window), nil
}

// Status returns limit, remaining and reset for key in one store read.
func (l *Limiter) Status(ctx context.Context, key string) (Status, error) {
	now := l.now()
	entries, err := l.store.Entries(ctx, key, now, l.window)
	if err != nil {
		return Status{}, err
	}
	s := Status{Limit: l.max, Remaining: l.max - len(entries), Reset: now}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if len(entries) > 0 {
		s.Reset = entries[0].Add(l.window)
	}
	return s, nil
}
