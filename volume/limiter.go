// Package volume caps the number of events and notifications kept per group.
//
// The cap is enforced on the write path: after a record is saved the oldest
// records beyond the group's quota are evicted. The record just written is
// never evicted.
package volume

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"go.uber.org/zap"
)

// Kind record kind subject to a volume quota
type Kind string

const (
	KindEvent        Kind = "event"
	KindNotification Kind = "notification"
)

// Limit picks the quota of kind from limits
func (k Kind) Limit(limits quota.UsageLimits) *int64 {
	if k == KindNotification {
		return limits.MaxNotifications
	}
	return limits.MaxEvents
}

// RecordStore counts and evicts records of one group
type RecordStore interface {
	Count(ctx context.Context, kind Kind, groupID uint64) (int64, error)

	// DeleteOldest deletes up to n records of the group, oldest first, never keepID.
	// Returns the number of records deleted.
	DeleteOldest(ctx context.Context, kind Kind, groupID uint64, n int64, keepID uint64) (int64, error)
}

// LimitsResolver resolves the effective limits of a group
type LimitsResolver interface {
	Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits
}

// Limiter post-write hook evicting records beyond the group quota
type Limiter struct {
	store    RecordStore
	resolver LimitsResolver
	logger   logger.Logger
	now      func() time.Time
}

// NewLimiter creates a limiter
func NewLimiter(store RecordStore, resolver LimitsResolver, log logger.Logger) *Limiter {
	return &Limiter{
		store:    store,
		resolver: resolver,
		logger:   log,
		now:      time.Now,
	}
}

// AfterCreate runs once the record createdID of kind was saved for groupID.
// Returns how many older records were evicted.
func (l *Limiter) AfterCreate(ctx context.Context, kind Kind, groupID, createdID uint64) (int, error) {
	limit := kind.Limit(l.resolver.Resolve(ctx, groupID, l.now()))
	if limit == nil {
		return 0, nil
	}

	count, err := l.store.Count(ctx, kind, groupID)
	if err != nil {
		return 0, fmt.Errorf("count %ss of group %d: %w", kind, groupID, err)
	}
	excess := count - *limit
	if excess <= 0 {
		return 0, nil
	}

	evicted, err := l.store.DeleteOldest(ctx, kind, groupID, excess, createdID)
	if err != nil {
		return int(evicted), fmt.Errorf("evict %ss of group %d: %w", kind, groupID, err)
	}

	l.logger.DebugCtx(ctx, "Evicted records over volume quota",
		zap.String("kind", string(kind)),
		zap.Uint64("group_id", groupID),
		zap.Int64("limit", *limit),
		zap.Int64("evicted", evicted))
	return int(evicted), nil
}
