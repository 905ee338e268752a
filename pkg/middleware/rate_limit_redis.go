package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/acompanha/acompanha/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var now = time.Now

// RedisRateLimitMiddleware provides a fixed-window Redis-backed limiter that
// is shared by every replica: at most max requests per client per window.
// A nil client falls back to the in-memory limiter.
func RedisRateLimitMiddleware(client *redis.Client, prefix string, max int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(max, window)
	}
	windowSeconds := int64(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	return func(c *gin.Context) {
		bucket := now().Unix() / windowSeconds
		redisKey := fmt.Sprintf("rl:%s:%s:%d", prefix, clientKey(c), bucket)

		ctx := c.Request.Context()
		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			logger.Errorf("rate limit: redis incr failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > int64(max) {
			c.Header("Retry-After", strconv.FormatInt(windowSeconds, 10))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
