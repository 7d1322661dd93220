package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rb-369/Social-Media-Microservices/internal/web"
)

// Counter is the shared fixed-window counter store. Incr bumps the window's
// count for key and returns the new total; the key expires with the window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(addr string) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	return &RedisCounter{client: client}, nil
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ipRateLimiter keeps a token bucket per client IP as a local fast path in
// front of the shared window, so one chatty client cannot saturate the Redis
// round-trip budget of the whole gateway.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, exists := i.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.visitors[ip] = limiter
	}
	return limiter
}

type RateLimitConfig struct {
	// MaxRequests per Window per client IP, counted in the shared store so
	// every gateway instance sees the same window.
	MaxRequests int
	Window      time.Duration
	// Local token bucket in front of the shared window.
	LocalRate  rate.Limit
	LocalBurst int
}

// RateLimit admits or rejects before anything else runs. A rejected request
// has no side effects past the counter bump itself.
func RateLimit(cfg RateLimitConfig, counter Counter, logger *logrus.Logger) gin.HandlerFunc {
	local := newIPRateLimiter(cfg.LocalRate, cfg.LocalBurst)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !local.getLimiter(ip).Allow() {
			web.SendError(c, http.StatusTooManyRequests, web.MsgRateLimited)
			c.Abort()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", ip)
		count, err := counter.Incr(c.Request.Context(), key, cfg.Window)
		if err != nil {
			// Admission fails open on a counter-store outage: dropping all
			// traffic because Redis blinked is worse than briefly not
			// enforcing the window.
			logger.WithError(err).Error("rate limit counter unavailable")
			c.Next()
			return
		}

		if count > int64(cfg.MaxRequests) {
			logger.WithField("ip", ip).Warn("rate limit exceeded")
			web.SendError(c, http.StatusTooManyRequests, web.MsgRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
