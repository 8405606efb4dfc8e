package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

// LocalLimiter keeps a token bucket per key in process memory.
type LocalLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

func NewLocalLimiter(requestsPerSecond float64, burst int) *LocalLimiter {
	rl := &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		done:     make(chan struct{}),
	}

	go rl.cleanupLimiters(constants.RateLimitCleanupInterval)

	return rl
}

// NewWindowLimiter spreads max requests per window into a bucket that
// refills continuously and starts full.
func NewWindowLimiter(window time.Duration, max int) *LocalLimiter {
	if max <= 0 {
		max = constants.DefaultRateLimitMax
	}
	if window <= 0 {
		window = constants.DefaultRateLimitWindow
	}
	return NewLocalLimiter(float64(max)/window.Seconds(), max)
}

func (rl *LocalLimiter) cleanupLimiters(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *LocalLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[key] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func (rl *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.getLimiter(key).Allow(), nil
}

func (rl *LocalLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
