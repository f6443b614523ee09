package collector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"go-data-concierge/internal/config"
)

func TestLimiterRegistrySharedPerSource(t *testing.T) {
	reg := NewLimiterRegistry(config.RateLimitConfig{Rate: 5, Burst: 2})

	a := reg.Get("market")
	b := reg.Get("market")
	other := reg.Get("chain")

	assert.Same(t, a, b, "all requests for one source must share a bucket")
	assert.NotSame(t, a, other)
}

func TestLimiterRegistryBurst(t *testing.T) {
	// Zero refill rate: only the initial burst is available.
	reg := NewLimiterRegistry(config.RateLimitConfig{Rate: 0, Burst: 3})
	lim := reg.Get("market")

	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestLimiterRegistryOverride(t *testing.T) {
	reg := NewLimiterRegistry(config.RateLimitConfig{Rate: 5, Burst: 2})
	reg.Override("chain", config.RateLimitConfig{Rate: 1, Burst: 7})

	assert.Equal(t, rate.Limit(1), reg.Get("chain").Limit())
	assert.Equal(t, 7, reg.Get("chain").Burst())
	assert.Equal(t, rate.Limit(5), reg.Get("market").Limit())
}

func TestLimiterRegistryConcurrentGet(t *testing.T) {
	reg := NewLimiterRegistry(config.RateLimitConfig{Rate: 5, Burst: 2})

	var wg sync.WaitGroup
	limiters := make([]*rate.Limiter, 16)
	for i := range limiters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			limiters[i] = reg.Get("market")
		}(i)
	}
	wg.Wait()

	for _, lim := range limiters {
		assert.Same(t, limiters[0], lim)
	}
}
