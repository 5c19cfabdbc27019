package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKey picks the bucket a request is counted in.
type RateLimitKey func(c *gin.Context) string

func KeyByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByUser counts authenticated callers per user id and everyone else per
// client IP. It must run after AuthMiddleware to see the user.
func KeyByUser(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok && userID != "" {
		return "user:" + userID
	}
	return KeyByClientIP(c)
}

// RateLimiterMiddleware is a fixed-window counter in Redis. When Redis fails
// the request is let through.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration, keyFn RateLimitKey) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByClientIP
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s", keyFn(c))

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[RATE] Redis error, limiter skipped: %v", err)
			c.Next()
			return
		}

		count := incr.Val()
		ttl := ttlCmd.Val()
		if ttl <= 0 {
			ttl = window
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":     "error",
				"message":    "Too many requests. Slow down!",
				"retry_in_s": int(ttl.Seconds()),
			})
			return
		}

		c.Next()
	}
}
