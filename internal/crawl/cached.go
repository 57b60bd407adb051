package crawl

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"vehiclescraper/internal/cache"
	"vehiclescraper/internal/logger"
)

// CachedFetcher serves repeat fetches of the same URL from a cache. Cache
// failures are logged and never fail the fetch.
type CachedFetcher struct {
	next  Fetcher
	cache cache.CacheService
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedFetcher wraps next with c.
func NewCachedFetcher(next Fetcher, c cache.CacheService, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: c, ttl: ttl, log: logger.ForComponent("crawl-cache")}
}

// PageKey is the cache key for a fetched page.
func PageKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "page:" + hex.EncodeToString(sum[:])
}

// Fetch implements Fetcher
func (f *CachedFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	key := PageKey(url)
	entry, err := cache.GetJSON[*Page](f.cache, key)
	if err == nil && entry.Data != nil {
		f.log.Debug().Str("url", url).Dur("age", entry.Age()).Msg("page served from cache")
		return entry.Data, nil
	}
	if err != nil && !cache.IsMiss(err) {
		f.log.Warn().Err(err).Msg("page cache read failed")
	}

	page, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(f.cache, key, page, f.ttl); err != nil {
		f.log.Warn().Err(err).Msg("page cache write failed")
	}
	return page, nil
}
