package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/hospitalward/ward-api/internal/handler"
)

// Clients idle longer than this are dropped from the limiter table.
const limiterIdleTTL = 3 * time.Minute

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP. Each ward console gets
// its own token bucket, so one misbehaving station cannot starve the
// rest of the floor.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	config  RateLimiterConfig
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		config:  config,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[clientIP]
	if !ok {
		rl.evictIdle(now)
		client = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.clients[clientIP] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

// evictIdle must be called with mu held.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.lastSeen) > limiterIdleTTL {
			delete(rl.clients, ip)
		}
	}
}
