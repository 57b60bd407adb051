package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps timestamps in process memory. State is lost on restart and
// is not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

// prune drops timestamps older than the window. Caller holds mu.
func (s *MemoryStore) prune(key string, now time.Time, window time.Duration) []time.Time {
	list := s.entries[key]
	i := 0
	for i < len(list) && now.Sub(list[i]) >= window {
		i++
	}
	if i > 0 {
		list = append([]time.Time(nil), list[i:]...)
		if len(list) == 0 {
			delete(s.entries, key)
		} else {
			s.entries[key] = list
		}
	}
	return list
}

// Take implements Store
func (s *MemoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.prune(key, now, window)
	if len(list) >= max {
		return false, nil
	}
	s.entries[key] = append(list, now)
	return true, nil
}

// Entries implements Store
func (s *MemoryStore) Entries(_ context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.prune(key, now, window)
	return append([]time.Time(nil), list...), nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor removes keys idle for longer than window every interval until
// ctx is cancelled. Keys that are never checked again would otherwise stay
// in the map forever.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval, window time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now, window)
			}
		}
	}()
}

func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, list := range s.entries {
		if len(list) == 0 || now.Sub(list[len(list)-1]) >= window {
			delete(s.entries, key)
		}
	}
}
