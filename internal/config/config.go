package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Server
	Port           string
	GinMode        string
	Environment    string
	TrustedProxies []string
	AllowOrigins   []string

	// Crawling API (Firecrawl-compatible)
	CrawlAPIURL       string
	CrawlAPIKey       string
	CrawlTimeout      time.Duration
	CrawlRatePerSec   float64
	DirectFetchOnMiss bool

	// Headless browser
	ChromeBin         string
	Headless          bool
	NavigationTimeout time.Duration
	ContentTimeout    time.Duration
	NavRetries        int
	NavBackoff        time.Duration

	// Rate limiting
	LimiterStore      string // memory | redis
	BrowserMax        int
	BrowserWindow     time.Duration
	GeneralMax        int
	GeneralWindow     time.Duration
	ThrottlePerSecond float64
	ThrottleBurst     int

	// Redis
	RedisAddr string
	RedisDB   int

	// Memcache (empty means in-process cache)
	MemcacheAddr string
	CacheTTL     time.Duration

	// History database
	DatabasePath string

	// bcrypt hash of the admin key; empty disables admin routes
	AdminKeyHash string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		Environment:    getEnv("APP_ENV", "development"),
		TrustedProxies: getList("TRUSTED_PROXIES", "127.0.0.1,::1,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"),
		AllowOrigins:   getList("CORS_ORIGINS", "*"),

		CrawlAPIURL:       getEnv("CRAWL_API_URL", "https://api.firecrawl.dev"),
		CrawlAPIKey:       getEnv("CRAWL_API_KEY", ""),
		CrawlTimeout:      getDuration("CRAWL_TIMEOUT_SECONDS", 30*time.Second),
		CrawlRatePerSec:   getFloat("CRAWL_RATE_PER_SECOND", 2),
		DirectFetchOnMiss: getBool("DIRECT_FETCH", true),

		ChromeBin:         getEnv("CHROME_BIN", ""),
		Headless:          getBool("BROWSER_HEADLESS", true),
		NavigationTimeout: getDuration("NAVIGATION_TIMEOUT_SECONDS", 20*time.Second),
		ContentTimeout:    getDuration("CONTENT_TIMEOUT_SECONDS", 12*time.Second),
		NavRetries:        getInt("NAVIGATION_RETRIES", 3),
		NavBackoff:        getDuration("NAVIGATION_BACKOFF_SECONDS", 2*time.Second),

		LimiterStore:      getEnv("RATE_LIMIT_STORE", "memory"),
		BrowserMax:        getInt("BROWSER_RATE_LIMIT", 3),
		BrowserWindow:     getDuration("BROWSER_RATE_WINDOW_SECONDS", time.Minute),
		GeneralMax:        getInt("GENERAL_RATE_LIMIT", 10),
		GeneralWindow:     getDuration("GENERAL_RATE_WINDOW_SECONDS", time.Minute),
		ThrottlePerSecond: getFloat("THROTTLE_PER_SECOND", 5),
		ThrottleBurst:     getInt("THROTTLE_BURST", 10),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getInt("REDIS_DB", 0),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		CacheTTL:     getDuration("CACHE_TTL_SECONDS", 15*time.Minute),

		DatabasePath: getEnv("DATABASE_PATH", "data/scrapes.db"),
		AdminKeyHash: getEnv("ADMIN_KEY_HASH", ""),
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.BrowserMax <= 0 || c.GeneralMax <= 0 {
		return fmt.Errorf("rate limits must be positive (browser=%d, general=%d)", c.BrowserMax, c.GeneralMax)
	}
	if c.BrowserWindow <= 0 || c.GeneralWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	switch c.LimiterStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q (want memory or redis)", c.LimiterStore)
	}
	if c.NavRetries < 1 {
		return fmt.Errorf("NAVIGATION_RETRIES must be at least 1")
	}
	if c.CrawlRatePerSec <= 0 {
		return fmt.Errorf("CRAWL_RATE_PER_SECOND must be positive")
	}
	return nil
}

// IsRelease reports whether detailed errors should be hidden from clients.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration reads a whole number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	secs, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || secs <= 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}

func getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
