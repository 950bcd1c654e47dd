package enforcer

import (
	"context"

	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"go.uber.org/zap"
)

// StatusReporter receives per-owner outcomes and the run summary.
// ReportItem may be called from several workers at once.
type StatusReporter interface {
	ReportItem(ctx context.Context, owner history.Owner, purged int, err error)
	Finish(ctx context.Context, summary Summary)
}

// LogReporter writes outcomes to a logger
type LogReporter struct {
	logger logger.Logger
}

// NewLogReporter creates the reporter
func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{logger: log}
}

// ReportItem logs failures at ERROR and purges at DEBUG
func (r *LogReporter) ReportItem(ctx context.Context, owner history.Owner, purged int, err error) {
	if err != nil {
		r.logger.ErrorCtx(ctx, "History enforcement failed for owner",
			zap.String("owner", owner.String()), zap.Int("purged", purged), zap.Error(err))
		return
	}
	if purged > 0 {
		r.logger.DebugCtx(ctx, "History enforced for owner",
			zap.String("owner", owner.String()), zap.Int("purged", purged))
	}
}

// Finish logs the summary
func (r *LogReporter) Finish(ctx context.Context, s Summary) {
	r.logger.InfoCtx(ctx, s.Message(),
		zap.String("run_id", s.RunID),
		zap.Int("owners", s.Owners),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int("purged", s.Purged),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)))
}
