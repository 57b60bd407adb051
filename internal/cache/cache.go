package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrCacheMiss is returned by Get when the key is absent or expired. Both
// implementations return it so callers need one check.
var ErrCacheMiss = memcache.ErrCacheMiss

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Entry wraps a cached value with the time it was stored.
type Entry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how long ago the entry was stored.
func (e Entry[T]) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// SetJSON stores v as JSON together with the current time.
func SetJSON[T any](c CacheService, key string, v T, expiration time.Duration) error {
	b, err := json.Marshal(Entry[T]{Data: v, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return c.Set(key, b, expiration)
}

// GetJSON loads an entry stored by SetJSON. A corrupt entry is treated as a
// miss and removed.
func GetJSON[T any](c CacheService, key string) (Entry[T], error) {
	var e Entry[T]
	b, err := c.Get(key)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		_ = c.Delete(key)
		return e, ErrCacheMiss
	}
	return e, nil
}

// IsMiss reports whether err means the key was not cached.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
