// Package enforcer runs history retention over every task and workflow.
package enforcer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Purger deletes history of one owner against an explicit limit
type Purger interface {
	Purge(ctx context.Context, owner history.Owner, limit *int64, reservationCount, maxToPurge int) (int, error)
}

// Config enforcement run settings
type Config struct {
	// Workers owners processed in parallel; 1 means sequential
	Workers int `mapstructure:"workers"`

	// MaxPurgePerOwner cap per owner and run; negative is unbounded
	MaxPurgePerOwner int `mapstructure:"max_purge_per_owner"`

	// ReservationCount slots kept free for upcoming executions
	ReservationCount int `mapstructure:"reservation_count"`
}

// DefaultConfig sequential, unbounded, no reservation
func DefaultConfig() Config {
	return Config{Workers: 1, MaxPurgePerOwner: history.Unbounded}
}

// Summary outcome of one run
type Summary struct {
	RunID      string
	Owners     int
	Succeeded  int
	Failed     int
	Purged     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Message one-line status for monitoring
func (s Summary) Message() string {
	return fmt.Sprintf("History enforcement finished: %d owners, %d succeeded, %d failed, %d executions purged",
		s.Owners, s.Succeeded, s.Failed, s.Purged)
}

// HistoryEnforcer resolves limits per group and purges each owner
type HistoryEnforcer struct {
	owners   OwnerSource
	purger   Purger
	resolver history.LimitsResolver
	reporter StatusReporter
	logger   logger.Logger
	cfg      Config
	now      func() time.Time
}

// New creates an enforcer
func New(owners OwnerSource, purger Purger, resolver history.LimitsResolver, reporter StatusReporter, log logger.Logger, cfg Config) *HistoryEnforcer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &HistoryEnforcer{
		owners:   owners,
		purger:   purger,
		resolver: resolver,
		reporter: reporter,
		logger:   log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run enforces every owner once. A failing owner is counted and reported,
// the others continue. The error is set only when the owners cannot be
// listed or the worker pool cannot start.
func (e *HistoryEnforcer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.New().String(), StartedAt: e.now()}
	ctx = logger.WithTraceID(ctx, summary.RunID)

	owners, err := e.owners.ListOwners(ctx)
	if err != nil {
		return summary, fmt.Errorf("list owners: %w", err)
	}
	summary.Owners = len(owners)
	e.logger.InfoCtx(ctx, "History enforcement started",
		zap.String("run_id", summary.RunID), zap.Int("owners", len(owners)), zap.Int("workers", e.cfg.Workers))

	pool, err := ants.NewPool(e.cfg.Workers)
	if err != nil {
		return summary, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	limits := newLimitsCache(e.resolver, summary.StartedAt)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(owner history.Owner, purged int, err error) {
		mu.Lock()
		summary.Purged += purged
		if err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		mu.Unlock()
		e.reporter.ReportItem(ctx, owner, purged, err)
	}

	for _, owner := range owners {
		if ctx.Err() != nil {
			record(owner, 0, ctx.Err())
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			purged, err := e.enforceOwner(ctx, limits, owner)
			record(owner, purged, err)
		})
		if submitErr != nil {
			wg.Done()
			record(owner, 0, fmt.Errorf("submit owner: %w", submitErr))
		}
	}
	wg.Wait()

	summary.FinishedAt = e.now()
	e.reporter.Finish(ctx, summary)
	return summary, nil
}

func (e *HistoryEnforcer) enforceOwner(ctx context.Context, limits *limitsCache, owner history.Owner) (purged int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while enforcing %s: %v", owner, r)
		}
	}()

	limit := owner.HistoryQuota(limits.get(ctx, owner.GroupID))
	return e.purger.Purge(ctx, owner, limit, e.cfg.ReservationCount, e.cfg.MaxPurgePerOwner)
}

// limitsCache resolves each group once per run
type limitsCache struct {
	resolver history.LimitsResolver
	at       time.Time
	mu       sync.Mutex
	byGroup  map[uint64]quota.UsageLimits
}

func newLimitsCache(resolver history.LimitsResolver, at time.Time) *limitsCache {
	return &limitsCache{resolver: resolver, at: at, byGroup: make(map[uint64]quota.UsageLimits)}
}

func (c *limitsCache) get(ctx context.Context, groupID uint64) quota.UsageLimits {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.byGroup[groupID]; ok {
		return l
	}
	l := c.resolver.Resolve(ctx, groupID, c.at)
	c.byGroup[groupID] = l
	return l
}
