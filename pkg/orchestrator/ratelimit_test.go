package orchestrator

import (
	"testing"

	"github.com/mindburn-labs/governor/core/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestDispatchLimiter_AllowsWithinBurst(t *testing.T) {
	cfg := config.Default()
	cfg.DispatchRateLimit = 1
	cfg.DispatchBurst = 3

	l := newDispatchLimiter(cfg)
	assert.True(t, l.allow("GID-01"))
	assert.True(t, l.allow("GID-01"))
	assert.True(t, l.allow("GID-01"))
	assert.False(t, l.allow("GID-01"))
}

func TestDispatchLimiter_PerIdentityBuckets(t *testing.T) {
	cfg := config.Default()
	cfg.DispatchRateLimit = 1
	cfg.DispatchBurst = 1

	l := newDispatchLimiter(cfg)
	assert.True(t, l.allow("GID-01"))
	assert.False(t, l.allow("GID-01"))
	assert.True(t, l.allow("GID-02"))
}

func TestDispatchLimiter_ZeroRateDisables(t *testing.T) {
	cfg := config.Default()
	cfg.DispatchRateLimit = 0

	l := newDispatchLimiter(cfg)
	for i := 0; i < 1000; i++ {
		assert.True(t, l.allow("GID-01"))
	}
}

func TestDispatch_RateLimited(t *testing.T) {
	o := newTestOrchestrator(t)
	o.limiter = newDispatchLimiter(&config.Config{DispatchRateLimit: 1, DispatchBurst: 1})

	p1 := validPAC("PAC-ORCH-EXEC-CORE-RL-001")
	_, err := o.Dispatch(p1)
	assert.NoError(t, err)

	p2 := validPAC("PAC-ORCH-EXEC-CORE-RL-002")
	dr, err := o.Dispatch(p2)
	assert.Error(t, err)
	assert.Equal(t, DispatchRejected, dr.Status)

	var rateLimited *DispatchRateLimited
	assert.ErrorAs(t, err, &rateLimited)
}
