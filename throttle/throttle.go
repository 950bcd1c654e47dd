package throttle

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LimitsResolver resolves the effective limits of a group
type LimitsResolver interface {
	Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits
}

// Throttle charges billable calls against the group's max_api_credits_per_month
type Throttle struct {
	store    CounterStore
	resolver LimitsResolver
	logger   logger.Logger
	metrics  *metrics
}

// Option configures a Throttle
type Option func(*options)

type options struct {
	meter metric.Meter
}

// WithMeter records metrics on meter instead of the global provider
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// New creates a throttle
func New(store CounterStore, resolver LimitsResolver, log logger.Logger, opts ...Option) (*Throttle, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, err
	}
	return &Throttle{
		store:    store,
		resolver: resolver,
		logger:   log,
		metrics:  m,
	}, nil
}

// CheckAndConsume charges one credit for groupID at now.
// A rejection is a normal outcome reported through Decision.Allowed; the
// error is set only when the counter store failed.
func (t *Throttle) CheckAndConsume(ctx context.Context, groupID uint64, now time.Time) (Decision, error) {
	limit := t.resolver.Resolve(ctx, groupID, now).MaxAPICreditsPerMonth

	decision, err := t.store.Consume(ctx, groupID, now, limit)
	if err != nil {
		t.metrics.recordError(ctx)
		t.logger.ErrorCtx(ctx, "API credit counter failed",
			zap.Uint64("group_id", groupID), zap.Error(err))
		return Decision{}, errcode.ErrQuotaStore.Wrap(err)
	}

	t.metrics.record(ctx, decision)
	if !decision.Allowed {
		t.logger.WarnCtx(ctx, "API credits exhausted",
			zap.Uint64("group_id", groupID),
			zap.Int64("used", decision.Used),
			zap.Int64("limit", *decision.Limit),
			zap.Time("retry_at", decision.RetryAt))
	}
	return decision, nil
}

// Allow is CheckAndConsume reduced to the allowed flag
func (t *Throttle) Allow(ctx context.Context, groupID uint64, now time.Time) (bool, error) {
	d, err := t.CheckAndConsume(ctx, groupID, now)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// Enforce returns errcode.ErrAPICreditsExhausted, carrying retry_at, when the call is rejected
func (t *Throttle) Enforce(ctx context.Context, groupID uint64, now time.Time) (Decision, error) {
	d, err := t.CheckAndConsume(ctx, groupID, now)
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		return d, errcode.ErrAPICreditsExhausted.
			WithData("retry_at", d.RetryAt.Format(time.RFC3339)).
			WithData("limit", *d.Limit)
	}
	return d, nil
}

// Usage stored counter of groupID
func (t *Throttle) Usage(ctx context.Context, groupID uint64) (Usage, error) {
	return t.store.Usage(ctx, groupID)
}
