package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vmoraru/invoice-extraction-service/internal/model"
)

// clientLimiter tracks one client's token bucket and its last activity so
// idle entries can be dropped.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client-IP limiter for one route group.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	perMinute  int
	lastSwept  time.Time
	sweepEvery time.Duration
}

// NewRateLimiter allows perMinute requests per client IP, with burst equal
// to the per-minute allowance.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		clients:    make(map[string]*clientLimiter),
		perMinute:  perMinute,
		lastSwept:  time.Now(),
		sweepEvery: 5 * time.Minute,
	}
}

// Middleware rejects requests over the per-IP limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error: model.ErrorDetail{
					Code:    "RATE_LIMITED",
					Message: "rate limit exceeded, retry later",
				},
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSwept) > rl.sweepEvery {
		for ip, client := range rl.clients {
			if now.Sub(client.lastSeen) > rl.sweepEvery {
				delete(rl.clients, ip)
			}
		}
		rl.lastSwept = now
	}

	client, ok := rl.clients[clientIP]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.perMinute),
		}
		rl.clients[clientIP] = client
	}
	client.lastSeen = now

	return client.limiter.Allow()
}
