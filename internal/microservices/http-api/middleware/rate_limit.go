package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit throttles requests per client IP with a token bucket. Used on
// the auth endpoints to slow credential stuffing; idle buckets are dropped
// after a few minutes so the map does not grow without bound.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)

	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			for ip, b := range buckets {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.lastSeen = time.Now()
		mu.Unlock()

		if !b.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
