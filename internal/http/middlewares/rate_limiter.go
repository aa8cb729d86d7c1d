package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/gatekeeper/internal/observability"
	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits per key in fixed windows. redisclient.Client
// satisfies it for limits shared across processes.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type RateLimiter struct {
	window  time.Duration
	limit   int
	counter WindowCounter
	prom    *observability.Prom
}

// NewRateLimiter falls back to an in-process counter when counter is nil.
func NewRateLimiter(limit int, window time.Duration, counter WindowCounter, prom *observability.Prom) *RateLimiter {
	if counter == nil {
		counter = NewMemoryCounter()
	}

	return &RateLimiter{
		limit:   limit,
		window:  window,
		counter: counter,
		prom:    prom,
	}
}

// Middleware returns a gin.HandlerFunc that enforces rate limit for a derived key

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = clientIP(c)
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		count, resetIn, err := rl.counter.IncrWindow(c.Request.Context(), route+"|"+key, rl.window)
		if err != nil {
			// fail open: a broken counter backend must not lock everyone out
			slog.Default().WarnContext(c.Request.Context(), "rate_limiter_unavailable", "err", err, "route", route)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(resetIn.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.prom.ObserveRateLimited(route)

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

type MemoryCounter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (m *MemoryCounter) IncrWindow(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]

	if !ok || now.After(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		m.clients[key] = b

		// opportunistic sweep so idle keys do not pile up
		if len(m.clients) > 4096 {
			for k, v := range m.clients {
				if now.After(v.windowEnd) {
					delete(m.clients, k)
				}
			}
		}
	}

	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
