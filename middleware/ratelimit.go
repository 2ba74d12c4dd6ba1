// middleware/ratelimit.go
package middleware

import (
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// bucket is a token bucket refilled continuously at rate tokens per second.
type bucket struct {
	tokens   float64
	capacity float64
	rate     float64
	lastSeen time.Time
}

// take spends one token. When the bucket is empty it returns how long until
// the next token is available.
func (b *bucket) take(now time.Time) (bool, time.Duration) {
	b.tokens = math.Min(b.capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*b.rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	return false, wait
}

// RateLimiter keeps one bucket per client IP. A client may burst up to
// maxRequests and then gets maxRequests per window.
type RateLimiter struct {
	name        string
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewRateLimiter(maxRequests, windowSeconds int) *RateLimiter {
	return newNamedLimiter("custom", maxRequests, time.Duration(windowSeconds)*time.Second)
}

func newNamedLimiter(name string, maxRequests int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &RateLimiter{
		name:        name,
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[string]*bucket),
		now:         time.Now,
	}
}

// Allow spends one request for key and reports the wait when refused.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{
			tokens:   float64(rl.maxRequests),
			capacity: float64(rl.maxRequests),
			rate:     float64(rl.maxRequests) / rl.window.Seconds(),
			lastSeen: now,
		}
		rl.buckets[key] = b
	}
	return b.take(now)
}

// sweep drops buckets idle for longer than maxIdle. An idle bucket is full
// again, so dropping it changes nothing for the client.
func (rl *RateLimiter) sweep(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	dropped := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			dropped++
		}
	}
	return dropped
}

// limiterFromEnv reads the request budget from maxKey and the window in
// milliseconds from windowKey.
func limiterFromEnv(name, maxKey, windowKey string, defMax int, defWindow time.Duration) *RateLimiter {
	maxRequests := getEnvInt(maxKey, defMax)
	window := time.Duration(getEnvInt(windowKey, int(defWindow/time.Millisecond))) * time.Millisecond
	if window <= 0 {
		window = defWindow
	}
	return newNamedLimiter(name, maxRequests, window)
}

var (
	// generalLimiter covers every API route.
	generalLimiter = limiterFromEnv("general", "RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW_MS", 100, 15*time.Minute)
	// loginLimiter guards admin login against password guessing.
	loginLimiter = limiterFromEnv("login", "AUTH_RATE_LIMIT_MAX", "AUTH_RATE_LIMIT_WINDOW_MS", 5, 5*time.Minute)
	// writeLimiter guards share creation and copy composition, which reach
	// the content service and the database.
	writeLimiter = limiterFromEnv("write", "SHARE_RATE_LIMIT_MAX", "SHARE_RATE_LIMIT_WINDOW_MS", 20, time.Minute)

	sweepOnce sync.Once
)

// startSweeper drops idle buckets every 10 minutes. It starts with the first
// limiter handler built.
func startSweeper() {
	sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				for _, rl := range []*RateLimiter{generalLimiter, loginLimiter, writeLimiter} {
					rl.sweep(30 * time.Minute)
				}
			}
		}()
	})
}

func getEnvInt(key string, def int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

// RATE_LIMIT_ENABLED=false disables every limiter.
func rateLimitDisabled() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")))
	return val == "false" || val == "0" || val == "no"
}

// skipRateLimit lets health checks and the websocket upgrade through.
func skipRateLimit(path string) bool {
	return path == "/health" || path == "/api/health" || strings.HasPrefix(path, "/ws")
}

// Limit rejects requests once the client's bucket in rl is empty, telling the
// client when to retry.
func Limit(rl *RateLimiter, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimitDisabled() || skipRateLimit(c.Path()) {
			return c.Next()
		}
		ok, wait := rl.Allow(c.IP())
		if !ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   message,
				"limit":   rl.name,
			})
		}
		return c.Next()
	}
}

// FiberRateLimitMiddleware applies general rate limiting for Fiber
func FiberRateLimitMiddleware() fiber.Handler {
	startSweeper()
	return Limit(generalLimiter, "Rate limit exceeded. Please try again later.")
}

// FiberAuthRateLimitMiddleware applies stricter rate limiting to the admin login
func FiberAuthRateLimitMiddleware() fiber.Handler {
	startSweeper()
	return Limit(loginLimiter, "Too many authentication attempts. Please try again later.")
}

// WriteRateLimitMiddleware limits share creation and copy composition.
func WriteRateLimitMiddleware() fiber.Handler {
	startSweeper()
	return Limit(writeLimiter, "Too many share or copy requests. Please slow down.")
}
