package orchestrator

import (
	"sync"

	"github.com/mindburn-labs/governor/core/pkg/config"
	"golang.org/x/time/rate"
)

// dispatchLimiter caps sustained Dispatch calls per target identity, one
// token bucket per identity created lazily on first use. A target identity
// with a runaway dispatcher behind it can't starve the rest of the system.
type dispatchLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newDispatchLimiter(cfg *config.Config) *dispatchLimiter {
	return &dispatchLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.DispatchRateLimit),
		burst:    cfg.DispatchBurst,
	}
}

// allow reports whether targetIdentity's bucket has a token to spend. A
// non-positive configured rate disables limiting entirely.
func (d *dispatchLimiter) allow(targetIdentity string) bool {
	if d.rps <= 0 {
		return true
	}

	d.mu.Lock()
	l, ok := d.limiters[targetIdentity]
	if !ok {
		l = rate.NewLimiter(d.rps, d.burst)
		d.limiters[targetIdentity] = l
	}
	d.mu.Unlock()

	return l.Allow()
}
