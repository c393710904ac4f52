package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/nhle/taskboard/internal/model"
)

// NewRedisClient connects to the Redis server in cfg and verifies it with a
// ping. It returns nil and no error when no address is configured.
func NewRedisClient(ctx context.Context, cfg model.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RateLimiter is a fixed-window limiter keyed by client IP and backed by
// Redis INCR/EXPIRE. A nil limiter or nil client lets every request through.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	log    *slog.Logger
}

// NewRateLimiter allows max requests per client per window.
func NewRateLimiter(client *redis.Client, max int, window time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		max:    max,
		window: window,
		log:    log,
	}
}

// Enabled reports whether requests are actually being counted.
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.client != nil && l.max > 0 && l.window > 0
}

// Middleware returns the gin handler. Redis failures fail open.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		key := "taskboard:rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + c.ClientIP()
		ctx := c.Request.Context()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.log.Warn("rate limiter unavailable", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
				l.log.Warn("setting rate limit expiry failed", "key", key, "error", err)
			}
		}

		remaining := int64(l.max) - val
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if val > int64(l.max) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
