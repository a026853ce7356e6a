package rpc

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the number of tracked clients; the least recently seen
// client is evicted past it.
const maxLimiters = 10000

// RateLimiter hands out a token bucket per client address
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with burst
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return newRateLimiter(requestsPerSecond, burst, maxLimiters)
}

func newRateLimiter(requestsPerSecond float64, burst, size int) *RateLimiter {
	limiters, _ := lru.New[string, *rate.Limiter](size)
	return &RateLimiter{
		limiters: limiters,
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Allow reports whether a request from key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).AllowN(time.Now(), 1)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters.Get(key)
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	return limiter
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	return rl.limiters.Len()
}
