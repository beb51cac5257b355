package ratelimiter

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RegionLimiters holds one token bucket per municipality so a backlog for
// one region cannot flood the assignment service on behalf of all others.
// Buckets are created lazily on first use. Burst equals the rate.
type RegionLimiters struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates RegionLimiters allowing ratePerSec calls per second per region.
// A non-positive rate disables limiting.
func New(ratePerSec int) *RegionLimiters {
	if ratePerSec <= 0 {
		return &RegionLimiters{limit: rate.Inf, burst: 0, limiters: map[string]*rate.Limiter{}}
	}
	return &RegionLimiters{
		limit:    rate.Limit(ratePerSec),
		burst:    ratePerSec,
		limiters: map[string]*rate.Limiter{},
	}
}

// Wait blocks until the region's limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (rl *RegionLimiters) Wait(ctx context.Context, region string) error {
	return rl.get(region).Wait(ctx)
}

func (rl *RegionLimiters) get(region string) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(region))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}
