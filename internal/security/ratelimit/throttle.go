package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a per-key token bucket for sensitive endpoints such as login.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
	burst    int
}

// NewThrottle allows burst requests per key, refilled one every interval.
func NewThrottle(every time.Duration, burst int) *Throttle {
	return &Throttle{limiters: make(map[string]*rate.Limiter), every: every, burst: burst}
}

func (t *Throttle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	lim, ok := t.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.every), t.burst)
		t.limiters[key] = lim
	}
	t.mu.Unlock()
	return lim.Allow(), nil
}
