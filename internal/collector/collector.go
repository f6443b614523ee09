package collector

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/internal/source"
)

// Collector drives source adapters with retry, backoff, per-source rate
// limiting and a circuit breaker, then normalizes successful fetches.
type Collector struct {
	adapters       map[string]source.Adapter
	normalizer     *Normalizer
	limits         *LimiterRegistry
	breakers       map[string]*gobreaker.CircuitBreaker[*model.RawRecord]
	defaultRetry   model.RetryPolicy
	attemptTimeout time.Duration
	logger         *zap.Logger

	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(adapters map[string]source.Adapter, cfg config.CollectorConfig, sources []config.SourceConfig, logger *zap.Logger) *Collector {
	limits := NewLimiterRegistry(cfg.RateLimit)
	breakers := make(map[string]*gobreaker.CircuitBreaker[*model.RawRecord], len(adapters))
	for name := range adapters {
		breakers[name] = gobreaker.NewCircuitBreaker[*model.RawRecord](gobreaker.Settings{
			Name:    name,
			Timeout: cfg.BackoffCap,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	for _, sc := range sources {
		if sc.RateLimit != nil {
			limits.Override(sc.Name, *sc.RateLimit)
		}
	}

	return &Collector{
		adapters:   adapters,
		normalizer: NewNormalizer(sources),
		limits:     limits,
		breakers:   breakers,
		defaultRetry: model.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BackoffBase: cfg.BackoffBase,
			BackoffCap:  cfg.BackoffCap,
		},
		attemptTimeout: cfg.AttemptTimeout,
		logger:         logger,
		sleep:          sleepCtx,
	}
}

// Collect runs one request to completion: up to MaxAttempts fetches with
// exponential backoff between them, then normalization. Only transport
// failures burn retry budget; rejected, malformed and unparsable payloads fail
// immediately because a retry cannot change them.
func (c *Collector) Collect(ctx context.Context, req model.CollectionRequest) (*model.NormalizedRecord, error) {
	adapter, ok := c.adapters[req.Source]
	if !ok {
		return nil, &UnknownSourceError{Source: req.Source}
	}

	policy := req.Retry
	if policy.MaxAttempts <= 0 {
		policy = c.defaultRetry
	}
	lim := c.limits.Get(req.Source)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Cancellation is honored between attempts and before each sleep.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 1 {
			if err := c.sleep(ctx, backoffDelay(policy, attempt)); err != nil {
				return nil, err
			}
		}
		if err := lim.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		raw, err := c.fetchOnce(ctx, adapter, req)
		if err != nil {
			lastErr = err
			if !source.Retryable(err) {
				return nil, err
			}
			c.logger.Warn("fetch attempt failed",
				zap.String("source", req.Source),
				zap.String("symbol", req.Symbol),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		rec, err := c.normalizer.Normalize(req, raw, attempt)
		if err != nil {
			return nil, err
		}
		if dropped := Screen(rec); len(dropped) > 0 {
			c.logger.Warn("dropped sensitive fields",
				zap.String("source", req.Source),
				zap.Strings("fields", dropped))
		}
		return rec, nil
	}

	return nil, &ExhaustedError{Source: req.Source, Attempts: policy.MaxAttempts, Last: lastErr}
}

// fetchOnce performs a single fetch attempt under the per-attempt timeout and
// the source's circuit breaker. An open breaker reads as the source being
// unavailable, which keeps it retryable.
func (c *Collector) fetchOnce(ctx context.Context, adapter source.Adapter, req model.CollectionRequest) (*model.RawRecord, error) {
	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	cb := c.breakers[req.Source]
	if cb == nil {
		return adapter.Fetch(attemptCtx, req)
	}
	raw, err := cb.Execute(func() (*model.RawRecord, error) {
		return adapter.Fetch(attemptCtx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, source.Unavailable(req.Source, err)
	}
	return raw, err
}

// backoffDelay computes the wait before the given attempt (attempt >= 2):
// exponential growth from the base with jitter, capped at the ceiling.
func backoffDelay(policy model.RetryPolicy, attempt int) time.Duration {
	delay := policy.BackoffBase
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay >= policy.BackoffCap {
			delay = policy.BackoffCap
			break
		}
	}
	if delay < policy.BackoffCap {
		delay += time.Duration(rand.Int63n(int64(delay/2 + 1)))
	}
	if delay > policy.BackoffCap {
		delay = policy.BackoffCap
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
