package collector

import (
	"sync"

	"golang.org/x/time/rate"

	"go-data-concierge/internal/config"
)

// LimiterRegistry hands out one shared token-bucket limiter per source. All
// concurrent requests against the same source go through the same bucket, so
// attempt issuance never exceeds the configured burst.
type LimiterRegistry struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	defaults  config.RateLimitConfig
	overrides map[string]config.RateLimitConfig
}

func NewLimiterRegistry(defaults config.RateLimitConfig) *LimiterRegistry {
	return &LimiterRegistry{
		limiters:  make(map[string]*rate.Limiter),
		defaults:  defaults,
		overrides: make(map[string]config.RateLimitConfig),
	}
}

// Override pins a per-source rate ahead of first use.
func (r *LimiterRegistry) Override(source string, cfg config.RateLimitConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[source] = cfg
}

// Get returns the limiter for a source, creating it on first use.
func (r *LimiterRegistry) Get(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[source]; ok {
		return lim
	}
	cfg := r.defaults
	if o, ok := r.overrides[source]; ok {
		cfg = o
	}
	lim := rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)
	r.limiters[source] = lim
	return lim
}
