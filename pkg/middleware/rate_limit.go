package middleware

import (
	"net/http"
	"sync"

	"github.com/folio-cms/folio/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limitKey prefers the authenticated subject so the owner editing from
// behind a NAT is not throttled with everyone else; otherwise client IP.
func limitKey(c *gin.Context) string {
	if sub := Subject(c); sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-process
// token bucket per key. rps = allowed events per second, burst = bucket size.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var limiters sync.Map // key -> *rate.Limiter
	return func(c *gin.Context) {
		v, _ := limiters.LoadOrStore(limitKey(c), rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
