package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/gym-admin-api/pkg/errors"
	"github.com/noah-isme/gym-admin-api/pkg/response"
)

// RateLimiter is an in-memory per-client token bucket. Each API replica keeps
// its own state.
type RateLimiter struct {
	capacity  int
	perMinute int
	idleTTL   time.Duration
	now       func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
	sweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter allows perMinute requests per client with bursts of up to burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &RateLimiter{
		capacity:  burst,
		perMinute: perMinute,
		idleTTL:   10 * time.Minute,
		now:       time.Now,
		state:     make(map[string]*bucket),
	}
}

// Middleware keys buckets by client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.perMinute <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		allowed, retryAfter := l.allow(key)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			response.Error(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: float64(l.capacity) - 1, last: now}
		return true, 0
	}

	rate := float64(l.perMinute) / time.Minute.Seconds()
	b.tokens += now.Sub(b.last).Seconds() * rate
	if b.tokens > float64(l.capacity) {
		b.tokens = float64(l.capacity)
	}
	b.last = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))
		return false, wait
	}
	b.tokens--
	return true, 0
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(l.sweep) < l.idleTTL {
		return
	}
	for key, b := range l.state {
		if now.Sub(b.last) > l.idleTTL {
			delete(l.state, key)
		}
	}
	l.sweep = now
}
