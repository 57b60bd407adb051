package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"vehiclescraper/internal/logger"
)

var log = logger.ForComponent("middleware")

// RequestThrottle is a per-IP token bucket guarding the whole API against
// request floods. Per-platform scrape quotas live in the ratelimit package.
type RequestThrottle struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRequestThrottle allows r requests per second with burst b per client IP.
func NewRequestThrottle(r rate.Limit, b int) *RequestThrottle {
	return &RequestThrottle{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		idle:     3 * time.Minute,
		now:      time.Now,
	}
}

// StartCleanup drops idle visitors every interval until ctx is cancelled.
func (rt *RequestThrottle) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rt.cleanup()
			}
		}
	}()
}

// limiter returns the limiter for ip, creating it on first use.
func (rt *RequestThrottle) limiter(ip string) *rate.Limiter {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	v, exists := rt.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rt.rate, rt.burst)}
		rt.visitors[ip] = v
	}
	v.lastSeen = rt.now()
	return v.limiter
}

func (rt *RequestThrottle) cleanup() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for ip, v := range rt.visitors {
		if rt.now().Sub(v.lastSeen) > rt.idle {
			delete(rt.visitors, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (rt *RequestThrottle) Len() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.visitors)
}

// Middleware rejects requests over the client's budget with 429.
func (rt *RequestThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rt.limiter(ip).Allow() {
			log.Warn().Str("ip", ip).Str("path", c.Request.URL.Path).Msg("request throttled")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Please slow down your requests",
			})
			return
		}
		c.Next()
	}
}

// SecurityHeaders adds security headers to responses. Swagger UI needs inline
// scripts, so its pages get a relaxed policy.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			c.Header("Content-Security-Policy",
				"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		// Prevent caching of sensitive responses
		if strings.HasPrefix(c.Request.URL.Path, "/api/admin/") {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.Next()
	}
}

// AdminKeyMiddleware protects admin endpoints. keyHash is a bcrypt hash of the
// admin key; an empty hash disables the admin routes entirely.
func AdminKeyMiddleware(keyHash string) gin.HandlerFunc {
	hash := []byte(keyHash)
	return func(c *gin.Context) {
		if len(hash) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Admin access is not configured",
			})
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword(hash, []byte(key)) != nil {
			log.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("rejected admin request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// HashAdminKey returns the bcrypt hash to put in ADMIN_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(h), err
}

// SecurityScanDetection logs requests that look like vulnerability scans.
func SecurityScanDetection() gin.HandlerFunc {
	suspiciousPaths := []string{
		".env", ".git", ".DS_Store", "wp-admin", "phpmyadmin",
		".htaccess", "config.php", "wp-config.php", ".ssh", "id_rsa", ".sql",
	}
	sqlKeywords := []string{"union", "select", "drop", "insert"}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, suspicious := range suspiciousPaths {
			if strings.Contains(path, suspicious) {
				log.Warn().Str("ip", c.ClientIP()).Str("method", c.Request.Method).Str("path", path).
					Msg("security scan attempt")
				break
			}
		}

		query := strings.ToLower(c.Request.URL.RawQuery)
		for _, kw := range sqlKeywords {
			if strings.Contains(query, kw) {
				log.Warn().Str("ip", c.ClientIP()).Str("query", c.Request.URL.RawQuery).
					Msg("sql injection attempt")
				break
			}
		}

		c.Next()
	}
}

// HTTPMethodFilter restricts allowed HTTP methods
func HTTPMethodFilter(allowedMethods []string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, method := range allowedMethods {
		allowed[method] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			log.Warn().Str("method", c.Request.Method).Str("ip", c.ClientIP()).Msg("blocked http method")
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		c.Next()
	}
}

// UserAgentFilter blocks requests with known attack-tool user agents or none
// at all.
func UserAgentFilter() gin.HandlerFunc {
	suspiciousAgents := []string{
		"sqlmap", "nikto", "nmap", "masscan", "gobuster",
		"dirb", "dirbuster", "w3af", "havij",
	}

	return func(c *gin.Context) {
		userAgent := strings.ToLower(c.GetHeader("User-Agent"))

		if userAgent == "" {
			log.Warn().Str("ip", c.ClientIP()).Msg("blocked empty user agent")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User agent required"})
			return
		}

		for _, suspicious := range suspiciousAgents {
			if strings.Contains(userAgent, suspicious) {
				log.Warn().Str("ip", c.ClientIP()).Str("user_agent", userAgent).Msg("blocked suspicious user agent")
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
				return
			}
		}

		c.Next()
	}
}
