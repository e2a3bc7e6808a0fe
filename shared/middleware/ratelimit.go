package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/MiguelKingofcodes/project-ppdm/shared/config"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
)

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

var (
	// StrictLimit guards login and the password recovery steps.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

// RateLimitFromEnv overrides cfg with RATELIMIT_<prefix>_REQUESTS,
// RATELIMIT_<prefix>_WINDOW_SEC and RATELIMIT_<prefix>_BURST.
func RateLimitFromEnv(prefix string, cfg RateLimitConfig) RateLimitConfig {
	if n := config.GetEnvInt("RATELIMIT_"+prefix+"_REQUESTS", 0); n > 0 {
		cfg.RequestsPerWindow = n
	}
	if sec := config.GetEnvInt("RATELIMIT_"+prefix+"_WINDOW_SEC", 0); sec > 0 {
		cfg.Window = time.Duration(sec) * time.Second
	}
	if b := config.GetEnvInt("RATELIMIT_"+prefix+"_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	return cfg
}

type rateLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose buckets are full again, at most once
// every five minutes.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP limits requests per client IP. Every route sharing the
// returned handler shares the same buckets.
func RateLimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	rl := &rateLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rl.getLimiter(key)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		retryAfter := max(int(reservation.Delay().Seconds()), 1)
		reservation.Cancel()

		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RequestsPerWindow))
		c.Header("X-RateLimit-Window", cfg.Window.String())

		logging.FromContext(c.Request.Context()).Warn("rate limit exceeded",
			"key", key,
			"endpoint", c.Request.URL.Path,
			"retry_after", retryAfter,
		)
		RespondWithError(c, http.StatusTooManyRequests, "RateLimited", "too many requests, please try again later")
		c.Abort()
	}
}
