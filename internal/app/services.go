// Package app builds the long-lived services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"vehiclescraper/internal/cache"
	"vehiclescraper/internal/config"
	"vehiclescraper/internal/crawl"
	"vehiclescraper/internal/database"
	"vehiclescraper/internal/handlers"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/middleware"
	"vehiclescraper/internal/ratelimit"
	"vehiclescraper/internal/scraper"
)

const janitorInterval = time.Minute

// Services holds all the initialized services
type Services struct {
	Cache          cache.CacheService
	Fetcher        crawl.Fetcher
	Scraper        *scraper.AutoTraderScraper
	Pipeline       *handlers.Pipeline
	BrowserLimiter *ratelimit.Limiter
	GeneralLimiter *ratelimit.Limiter
	Throttle       *middleware.RequestThrottle
	DB             *database.Database

	redis *redis.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	log := logger.ForComponent("app")
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

// Options selects the optional parts of Initialize.
type Options struct {
	// WithServer builds the limiters, the request throttle and the history
	// database. The one-shot CLI leaves it off.
	WithServer bool
}

// Initialize wires every service from cfg. Background janitors stop when ctx
// is cancelled.
func Initialize(ctx context.Context, cfg *config.Config, opts Options) (*Services, error) {
	log := logger.ForComponent("app")
	s := &Services{}

	s.Cache = newCache(ctx, cfg)
	s.Fetcher = newFetcher(cfg, s.Cache)
	if s.Fetcher == nil {
		log.Warn().Msg("no crawl API key and direct fetching disabled, crawl platforms will fail")
	}

	s.Scraper = scraper.NewAutoTraderScraper(scraper.Options{
		ChromeBin:         cfg.ChromeBin,
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
		ContentTimeout:    cfg.ContentTimeout,
		Retries:           cfg.NavRetries,
		Backoff:           cfg.NavBackoff,
	})
	s.Pipeline = handlers.NewPipeline(s.Fetcher, s.Scraper, s.Cache, cfg.CacheTTL)

	if !opts.WithServer {
		return s, nil
	}

	store, err := s.newLimiterStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.BrowserLimiter = ratelimit.New(store, cfg.BrowserMax, cfg.BrowserWindow)
	s.GeneralLimiter = ratelimit.New(store, cfg.GeneralMax, cfg.GeneralWindow)

	s.Throttle = middleware.NewRequestThrottle(rate.Limit(cfg.ThrottlePerSecond), cfg.ThrottleBurst)
	s.Throttle.StartCleanup(ctx, janitorInterval)

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		s.Cleanup()
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	s.DB = db

	log.Info().
		Str("limiter_store", cfg.LimiterStore).
		Int("browser_max", cfg.BrowserMax).
		Dur("browser_window", cfg.BrowserWindow).
		Int("general_max", cfg.GeneralMax).
		Dur("general_window", cfg.GeneralWindow).
		Str("database", cfg.DatabasePath).
		Msg("services initialized")
	return s, nil
}

func newCache(ctx context.Context, cfg *config.Config) cache.CacheService {
	log := logger.ForComponent("app")
	if cfg.MemcacheAddr == "" {
		log.Info().Msg("using in-process result cache")
		return newMemoryCache(ctx)
	}

	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("memcache unreachable, using in-process result cache")
		return newMemoryCache(ctx)
	}
	log.Info().Str("addr", cfg.MemcacheAddr).Msg("using memcache result cache")
	return mc
}

func newMemoryCache(ctx context.Context) *cache.MemoryCache {
	c := cache.NewMemoryCache()
	c.StartJanitor(ctx, janitorInterval)
	return c
}

func newFetcher(cfg *config.Config, c cache.CacheService) crawl.Fetcher {
	var f crawl.Fetcher
	switch {
	case cfg.CrawlAPIKey != "":
		f = crawl.NewAPIClient(cfg.CrawlAPIURL, cfg.CrawlAPIKey, cfg.CrawlTimeout,
			crawl.WithRate(cfg.CrawlRatePerSec, 1))
	case cfg.DirectFetchOnMiss:
		f = crawl.NewDirectFetcher(cfg.CrawlTimeout)
	default:
		return nil
	}
	return crawl.NewCachedFetcher(f, c, cfg.CacheTTL)
}

func (s *Services) newLimiterStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, error) {
	if cfg.LimiterStore == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		s.redis = client
		return ratelimit.NewRedisStore(client, "ratelimit:"), nil
	}

	store := ratelimit.NewMemoryStore()
	window := cfg.BrowserWindow
	if cfg.GeneralWindow > window {
		window = cfg.GeneralWindow
	}
	store.StartJanitor(ctx, janitorInterval, window)
	return store, nil
}
