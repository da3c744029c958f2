package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dukerupert/addressd/internal/domain"
)

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// RequestsPerSecond is the rate of token refill
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst
	BurstSize int

	// CleanupInterval is how often idle limiters are dropped
	CleanupInterval time.Duration

	// KeyFunc extracts the rate limit key from the request
	// Default: client IP address
	KeyFunc func(c echo.Context) string

	// Skipper bypasses limiting for matching requests
	// Default: health and metrics endpoints
	Skipper func(c echo.Context) bool
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   time.Minute,
		KeyFunc:           clientIP,
		Skipper:           skipOperational,
	}
}

type limiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

func (e *limiterEntry) touch(now time.Time) {
	e.mu.Lock()
	e.lastAccess = now
	e.mu.Unlock()
}

func (e *limiterEntry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastAccess)
}

// RateLimiter is an in-memory per-client rate limiter
type RateLimiter struct {
	config   RateLimiterConfig
	limiters sync.Map // key -> *limiterEntry
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter and starts its cleanup goroutine.
// Call Stop to release it.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.KeyFunc == nil {
		config.KeyFunc = defaults.KeyFunc
	}
	if config.Skipper == nil {
		config.Skipper = defaults.Skipper
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	rl := &RateLimiter{
		config: config,
		stop:   make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether a request for key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	if val, ok := rl.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.touch(now)
		return entry.limiter.AllowN(now, 1)
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		lastAccess: now,
	}
	// Another goroutine may have stored one first.
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter.AllowN(now, 1)
}

// cleanup removes limiters idle for longer than the cleanup interval
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				if value.(*limiterEntry).idleSince(now) > rl.config.CleanupInterval {
					rl.limiters.Delete(key)
				}
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware returns an echo middleware that applies rate limiting
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.config.Skipper(c) {
				return next(c)
			}

			key := rl.config.KeyFunc(c)
			if !rl.Allow(key) {
				zerolog.Ctx(c.Request().Context()).Warn().
					Str("client", key).
					Msg("rate limit exceeded")

				h := c.Response().Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.BurstSize))
				h.Set("X-RateLimit-Remaining", "0")
				h.Set("Retry-After", "1")
				return domain.RateLimited("middleware.RateLimit")
			}

			return next(c)
		}
	}
}

func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func skipOperational(c echo.Context) bool {
	switch c.Request().URL.Path {
	case "/health", "/metrics":
		return true
	}
	return false
}
