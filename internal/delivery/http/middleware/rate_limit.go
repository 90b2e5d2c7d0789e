package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per actor, or per client IP for
// unauthenticated requests. Idle buckets are dropped after idleTTL.
type RateLimitMiddleware struct {
	mu      sync.Mutex
	m       map[string]*limiterEntry
	r       rate.Limit
	b       int
	idleTTL time.Duration
	now     func() time.Time
	swept   time.Time
}

func NewRateLimitMiddleware(reqPerSec float64, burst int) *RateLimitMiddleware {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitMiddleware{
		m:       make(map[string]*limiterEntry),
		r:       rate.Limit(reqPerSec),
		b:       burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (m *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.swept) > m.idleTTL {
		for k, e := range m.m {
			if now.Sub(e.lastSeen) > m.idleTTL {
				delete(m.m, k)
			}
		}
		m.swept = now
	}

	if e, ok := m.m[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := rate.NewLimiter(m.r, m.b)
	m.m[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (m *RateLimitMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m == nil || m.r <= 0 {
			return c.Next()
		}
		key := "ip:" + c.IP()
		if actor, ok := ActorFromCtx(c); ok {
			key = "actor:" + actor.ID.String()
		}
		if !m.limiterFor(key).AllowN(m.now(), 1) {
			c.Set("Retry-After", "1")
			return NewAppError(fiber.StatusTooManyRequests, "Too many requests", nil, nil)
		}
		return c.Next()
	}
}
