package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Remaining returns how many requests are left in the current window.
func (d Decision) Remaining() int64 {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	// Allow records one request for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (Decision, error)
}

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewRateLimiter creates a Redis-based fixed window rate limiter
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &redisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// windowKey generates the Redis key for the current window
// Format: rate:{key}:{window index}
func (r *redisRateLimiter) windowKey(key string, now time.Time) string {
	return fmt.Sprintf("rate:%s:%d", key, now.UnixNano()/int64(r.window))
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if r.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	now := r.now()
	redisKey := r.windowKey(key, now)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to increment counter", "key", key, "error", err)
		// On error, allow the request but report it
		return Decision{Allowed: true, Limit: r.limit}, err
	}

	count := incr.Val()
	windowEnd := time.Unix(0, (now.UnixNano()/int64(r.window)+1)*int64(r.window))

	return Decision{
		Allowed:    count <= r.limit,
		Count:      count,
		Limit:      r.limit,
		RetryAfter: windowEnd.Sub(now),
	}, nil
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct{}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - rate limiting is disabled")
	return &NoOpRateLimiter{}
}

func (r *NoOpRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// LimitByClientIP rejects callers that exceed the limiter's budget with 429.
func LimitByClientIP(limiter RateLimiter, scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("⚠️ [RateLimiter] Check failed, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining(), 10))
		}

		if !decision.Allowed {
			retryAfter := int64(decision.RetryAfter.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.Warn("⚠️ [RateLimiter] Rate limit exceeded", "key", key, "count", decision.Count)
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}

		c.Next()
	}
}
