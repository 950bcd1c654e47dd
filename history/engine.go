package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"go.uber.org/zap"
)

// Unbounded maxToPurge value that lets one call delete as many records as needed
const Unbounded = -1

// LimitsResolver resolves the effective limits of a group
type LimitsResolver interface {
	Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits
}

// Engine purges the oldest completed executions of an owner beyond its history quota
type Engine struct {
	store    ExecutionStore
	resolver LimitsResolver
	logger   logger.Logger
	now      func() time.Time
}

// NewEngine creates a purge engine
func NewEngine(store ExecutionStore, resolver LimitsResolver, log logger.Logger) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver,
		logger:   log,
		now:      time.Now,
	}
}

// PurgeHistory resolves the owner's group limits and purges against the matching history quota
func (e *Engine) PurgeHistory(ctx context.Context, owner Owner, reservationCount, maxToPurge int) (int, error) {
	limits := e.resolver.Resolve(ctx, owner.GroupID, e.now())
	return e.Purge(ctx, owner, owner.HistoryQuota(limits), reservationCount, maxToPurge)
}

// Purge deletes completed executions of owner, oldest first, until at most
// limit-reservationCount executions remain or maxToPurge records were deleted.
// In-progress executions are never deleted and still count against the quota.
// A nil limit means unlimited. Returns the number of executions deleted; on a
// delete failure it returns the count deleted so far together with the error.
func (e *Engine) Purge(ctx context.Context, owner Owner, limit *int64, reservationCount, maxToPurge int) (int, error) {
	if reservationCount < 0 {
		return 0, errcode.ErrValidation.WithMsgf("reservation count must not be negative, got %d", reservationCount)
	}
	if limit == nil {
		return 0, nil
	}

	allowance := *limit - int64(reservationCount)
	if allowance < 0 {
		allowance = 0
	}

	completed, err := e.store.ListCompleted(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list completed executions of %s: %w", owner, err)
	}
	inProgress, err := e.store.ListInProgress(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list in-progress executions of %s: %w", owner, err)
	}

	total := int64(len(completed) + len(inProgress))
	excess := total - allowance
	if excess <= 0 {
		return 0, nil
	}

	target := excess
	if maxToPurge >= 0 && int64(maxToPurge) < target {
		target = int64(maxToPurge)
	}

	purged := 0
	for _, exec := range mergeByOrderTime(completed, inProgress) {
		if int64(purged) >= target {
			break
		}
		if !exec.Deletable() {
			continue
		}
		if err := e.store.Delete(ctx, owner, exec.ID); err != nil {
			if errors.Is(err, ErrExecutionNotFound) {
				continue
			}
			e.logger.ErrorCtx(ctx, "Failed to delete execution",
				zap.String("owner", owner.String()), zap.Uint64("execution_id", exec.ID), zap.Error(err))
			return purged, fmt.Errorf("delete execution %d of %s: %w", exec.ID, owner, err)
		}
		purged++
	}

	if purged > 0 {
		e.logger.InfoCtx(ctx, "Execution history purged",
			zap.String("owner", owner.String()),
			zap.Int("purged", purged),
			zap.Int64("excess", excess),
			zap.Int64("allowance", allowance))
	}
	if int64(purged) < excess {
		e.logger.DebugCtx(ctx, "Owner remains over history quota",
			zap.String("owner", owner.String()), zap.Int64("remaining_excess", excess-int64(purged)))
	}
	return purged, nil
}
