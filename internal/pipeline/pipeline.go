package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-data-concierge/internal/collector"
	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/internal/quality"
	"go-data-concierge/internal/source"
)

// Sink receives every terminal PipelineResult. Persistence lives behind it;
// the pipeline does not define storage schema.
type Sink interface {
	Store(ctx context.Context, result *model.PipelineResult) error
}

// StatusFunc observes per-request state transitions (persisted job status,
// progress reporting). May be nil.
type StatusFunc func(requestID string, state model.RequestState)

// defaultSchema scores sources that declare no schema of their own: the
// canonical value must be present and non-negative.
var defaultSchema = &model.Schema{
	Name: "default",
	Fields: map[string]model.FieldSpec{
		"value":     {Required: true, Kind: model.KindNumber, Min: float64Ptr(0)},
		"timestamp": {Kind: model.KindTimestamp},
	},
}

func float64Ptr(f float64) *float64 { return &f }

// Coordinator owns the lifecycle of every collection request: it drives the
// collector, hands the normalized record to the validator and turns the score
// into a terminal accept/reject decision.
type Coordinator struct {
	collector *collector.Collector
	validator *quality.Validator
	schemas   map[string]*model.Schema
	sink      Sink
	threshold float64
	workers   int
	logger    *zap.Logger
	metrics   *Metrics
	status    StatusFunc
}

func NewCoordinator(
	col *collector.Collector,
	val *quality.Validator,
	sources []config.SourceConfig,
	sink Sink,
	cfg config.PipelineConfig,
	logger *zap.Logger,
	metrics *Metrics,
	status StatusFunc,
) *Coordinator {
	schemas := make(map[string]*model.Schema, len(sources))
	for _, sc := range sources {
		if sc.Schema != nil {
			schemas[sc.Name] = sc.Schema
		}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Coordinator{
		collector: col,
		validator: val,
		schemas:   schemas,
		sink:      sink,
		threshold: cfg.AcceptanceThreshold,
		workers:   workers,
		logger:    logger,
		metrics:   metrics,
		status:    status,
	}
}

func (c *Coordinator) setState(req model.CollectionRequest, state model.RequestState) {
	if c.status != nil {
		c.status(req.ID, state)
	}
}

// Submit runs one request through collect → validate → decide and hands the
// result to the sink. The returned error is non-nil only when the request was
// cancelled before a result could be produced; every other failure becomes a
// terminal result.
func (c *Coordinator) Submit(ctx context.Context, req model.CollectionRequest) (*model.PipelineResult, error) {
	start := time.Now()
	c.setState(req, model.StatePending)
	c.setState(req, model.StateCollecting)

	rec, err := c.collector.Collect(ctx, req)
	if err != nil {
		// Per-attempt timeouts also surface as DeadlineExceeded somewhere in
		// the chain; only the request's own context decides cancellation.
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			c.logger.Info("request cancelled",
				zap.String("request", req.ID), zap.String("source", req.Source))
			return nil, err
		}
		return c.finish(ctx, collectFailure(req, err), start), nil
	}

	c.setState(req, model.StateValidating)
	schema := c.schemas[req.Source]
	if schema == nil {
		schema = defaultSchema
	}

	score, err := c.validator.Validate(rec, schema)
	if err != nil {
		result := &model.PipelineResult{
			Request:     req,
			Record:      rec,
			Decision:    model.DecisionFailed,
			Error:       err.Error(),
			ErrorKind:   "schema_error",
			CompletedAt: time.Now().UTC(),
		}
		return c.finish(ctx, result, start), nil
	}

	result := c.decide(req, rec, score)
	return c.finish(ctx, result, start), nil
}

// decide applies the acceptance rule: aggregate at or above the threshold and
// no critical flag. A rejection is a data property, never retried here;
// re-collection is the caller's decision.
func (c *Coordinator) decide(req model.CollectionRequest, rec *model.NormalizedRecord, score *model.QualityScore) *model.PipelineResult {
	result := &model.PipelineResult{
		Request:     req,
		Record:      rec,
		Score:       score,
		CompletedAt: time.Now().UTC(),
	}

	if score.Aggregate >= c.threshold && !score.HasCritical() {
		result.Decision = model.DecisionAccepted
		return result
	}

	result.Decision = model.DecisionRejected
	result.Reasons = score.FlagTags()
	if len(result.Reasons) == 0 {
		result.Reasons = []string{"aggregate_low"}
	}
	return result
}

// collectFailure maps a collection error onto its terminal result form:
// exhausted transport retries keep their own decision, everything else is a
// plain failure with a stable error kind.
func collectFailure(req model.CollectionRequest, err error) *model.PipelineResult {
	result := &model.PipelineResult{
		Request:     req,
		Error:       err.Error(),
		CompletedAt: time.Now().UTC(),
	}

	var exhausted *collector.ExhaustedError
	var norm *collector.NormalizationError
	var unknown *collector.UnknownSourceError
	switch {
	case errors.As(err, &exhausted):
		result.Decision = model.DecisionExhausted
		result.ErrorKind = "collection_exhausted"
		if kind, ok := source.KindOf(exhausted.Last); ok {
			result.ErrorKind = string(kind)
		}
	case errors.As(err, &norm):
		result.Decision = model.DecisionFailed
		result.ErrorKind = "normalization_error"
	case errors.As(err, &unknown):
		result.Decision = model.DecisionFailed
		result.ErrorKind = "unknown_source"
	default:
		result.Decision = model.DecisionFailed
		if kind, ok := source.KindOf(err); ok {
			result.ErrorKind = string(kind)
		} else {
			result.ErrorKind = "internal"
		}
	}
	return result
}

// finish records the terminal state, ships the result to the sink and updates
// metrics. Results already computed are never discarded, even when the
// request context has been cancelled in the meantime.
func (c *Coordinator) finish(ctx context.Context, result *model.PipelineResult, start time.Time) *model.PipelineResult {
	c.setState(result.Request, model.RequestState(result.Decision))
	c.metrics.observe(string(result.Decision), result.Request.Source, time.Since(start))

	if c.sink != nil {
		// Store on a detached context: a cancelled request must not lose a
		// result that already exists.
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.sink.Store(storeCtx, result); err != nil {
			c.logger.Error("sink store failed",
				zap.String("request", result.Request.ID), zap.Error(err))
		}
	}

	c.logger.Info("request finished",
		zap.String("request", result.Request.ID),
		zap.String("source", result.Request.Source),
		zap.String("symbol", result.Request.Symbol),
		zap.String("decision", string(result.Decision)),
		zap.Strings("reasons", result.Reasons))
	return result
}

// SubmitBatch runs independent requests concurrently through a bounded worker
// pool and aggregates the outcomes. Result order matches request order.
func (c *Coordinator) SubmitBatch(ctx context.Context, reqs []model.CollectionRequest) ([]*model.PipelineResult, model.BatchSummary) {
	start := time.Now()
	results := make([]*model.PipelineResult, len(reqs))

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req model.CollectionRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := c.Submit(ctx, req)
			if err != nil {
				return // cancelled before a result existed
			}
			results[i] = res
		}(i, req)
	}
	wg.Wait()

	summary := model.BatchSummary{
		ByDecision: make(map[model.Decision]int),
		Elapsed:    time.Since(start),
	}
	var aggSum float64
	var scored int
	for _, res := range results {
		if res == nil {
			continue
		}
		summary.Total++
		summary.ByDecision[res.Decision]++
		if res.Score != nil {
			aggSum += res.Score.Aggregate
			scored++
		}
	}
	if scored > 0 {
		summary.MeanAggregate = aggSum / float64(scored)
	}
	return results, summary
}
