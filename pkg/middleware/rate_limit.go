package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/acompanha/acompanha/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterSet holds one token bucket per client key.
type limiterSet struct {
	m     sync.Map // map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if v, ok := s.m.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.m.LoadOrStore(key, rate.NewLimiter(s.rps, s.burst))
	return v.(*rate.Limiter)
}

// clientKey prefers the authenticated user so clients behind one NAT do not
// share a bucket; otherwise it falls back to the client IP.
func clientKey(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != "" {
		return "user:" + id.UserID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token-bucket limit per client: bursts of up to max requests, refilled at
// max per window.
func RateLimitMiddleware(max int, window time.Duration) gin.HandlerFunc {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Second
	}
	set := &limiterSet{rps: rate.Limit(float64(max) / window.Seconds()), burst: max}
	return func(c *gin.Context) {
		lim := set.get(clientKey(c))
		if !lim.Allow() {
			r := lim.Reserve()
			delay := r.Delay()
			r.Cancel()
			c.Header("Retry-After", retryAfter(delay))
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
