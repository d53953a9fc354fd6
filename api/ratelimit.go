package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/menprac-cloud/menPrac-backend/metrics"
)

// RateLimiter implements fixed-window request limiting backed by Redis, so
// the limit holds across server instances. The window state is a single
// counter per client IP; INCR and EXPIRE keep it atomic enough for an API
// limiter.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a limiter over the shared Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Middleware returns a gin middleware enforcing limit requests per window,
// keyed by scope and client IP. On a Redis failure the request is allowed:
// the limiter protects capacity, it must not become an outage amplifier.
func (l *RateLimiter) Middleware(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.ClientIP())
		ctx := c.Request.Context()

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Rate limiter unavailable for %s: %v", key, err)
			c.Next()
			return
		}
		if count == 1 {
			if err := l.client.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("Rate limiter expire failed for %s: %v", key, err)
			}
		}

		if count > int64(limit) {
			metrics.RateLimitRejections.Inc()
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
