package quota

import (
	"context"
	"sort"
	"time"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/model"
	"go.uber.org/zap"
)

// SubscriptionSource lists the subscriptions of a group with their plans loaded.
// Implementations may pre-filter on the active flag; the resolver re-checks the period.
type SubscriptionSource interface {
	ListSubscriptions(ctx context.Context, groupID uint64) ([]model.Subscription, error)
}

// Resolver computes the effective limits of a group
type Resolver struct {
	source   SubscriptionSource
	baseline UsageLimits
	logger   logger.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithBaseline replaces DefaultLimits as the starting point
func WithBaseline(baseline UsageLimits) ResolverOption {
	return func(r *Resolver) {
		r.baseline = baseline
	}
}

// NewResolver creates a resolver over source
func NewResolver(source SubscriptionSource, log logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:   source,
		baseline: DefaultLimits(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Baseline limits every group starts from
func (r *Resolver) Baseline() UsageLimits {
	return r.baseline.copied()
}

// Resolve combines the baseline with the plan of every subscription active at now.
// It never fails: unreadable subscription data contributes nothing.
func (r *Resolver) Resolve(ctx context.Context, groupID uint64, now time.Time) UsageLimits {
	subs, err := r.source.ListSubscriptions(ctx, groupID)
	if err != nil {
		r.logger.WarnCtx(ctx, "Failed to list subscriptions, using baseline limits",
			zap.Uint64("group_id", groupID), zap.Error(err))
		return r.Baseline()
	}

	// fixed combination order; the result does not depend on it
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })

	limits := r.Baseline()
	for _, sub := range subs {
		if !sub.IsActiveAt(now) {
			continue
		}
		if sub.SubscriptionPlan == nil {
			r.logger.WarnCtx(ctx, "Active subscription has no plan, skipped",
				zap.Uint64("group_id", groupID), zap.Uint64("subscription_id", sub.ID))
			continue
		}
		limits = limits.Combine(FromPlan(*sub.SubscriptionPlan))
	}
	return limits
}
