package enforcer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticOwners struct {
	owners []history.Owner
	err    error
}

func (s staticOwners) ListOwners(ctx context.Context) ([]history.Owner, error) {
	return s.owners, s.err
}

type countingResolver struct {
	calls  int32
	limits quota.UsageLimits
}

func (r *countingResolver) Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits {
	atomic.AddInt32(&r.calls, 1)
	return r.limits
}

type scriptedPurger struct {
	mu     sync.Mutex
	seen   []history.Owner
	limits []*int64
	failID uint64
}

func (p *scriptedPurger) Purge(ctx context.Context, owner history.Owner, limit *int64, reservationCount, maxToPurge int) (int, error) {
	p.mu.Lock()
	p.seen = append(p.seen, owner)
	p.limits = append(p.limits, limit)
	p.mu.Unlock()

	if owner.ID == p.failID {
		return 1, errors.New("delete failed")
	}
	if owner.ID == 99 {
		panic("corrupt row")
	}
	return 2, nil
}

type recordingReporter struct {
	mu       sync.Mutex
	items    int
	errors   int
	finished *Summary
}

func (r *recordingReporter) ReportItem(ctx context.Context, owner history.Owner, purged int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items++
	if err != nil {
		r.errors++
	}
}

func (r *recordingReporter) Finish(ctx context.Context, s Summary) {
	r.finished = &s
}

func owners(n int, groups uint64) []history.Owner {
	out := make([]history.Owner, 0, n)
	for i := 1; i <= n; i++ {
		kind := history.OwnerTask
		if i%2 == 0 {
			kind = history.OwnerWorkflow
		}
		out = append(out, history.Owner{Kind: kind, ID: uint64(i), GroupID: uint64(i)%groups + 1})
	}
	return out
}

func TestRun_IsolatesOwnerFailures(t *testing.T) {
	purger := &scriptedPurger{failID: 3}
	reporter := &recordingReporter{}
	resolver := &countingResolver{limits: quota.DefaultLimits()}

	list := append(owners(5, 2), history.Owner{Kind: history.OwnerTask, ID: 99, GroupID: 1})
	e := New(staticOwners{owners: list}, purger, resolver, reporter, logger.NewTestCtxLogger(), DefaultConfig())

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Owners)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 4*2+1, summary.Purged)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, 6, reporter.items)
	assert.Equal(t, 2, reporter.errors)
	require.NotNil(t, reporter.finished)
	assert.Equal(t, summary.RunID, reporter.finished.RunID)
	assert.Contains(t, summary.Message(), "6 owners, 4 succeeded, 2 failed")
}

func TestRun_ResolvesEachGroupOnce(t *testing.T) {
	resolver := &countingResolver{limits: quota.DefaultLimits()}
	e := New(staticOwners{owners: owners(10, 3)}, &scriptedPurger{}, resolver, &recordingReporter{},
		logger.NewTestCtxLogger(), Config{Workers: 4, MaxPurgePerOwner: 10})

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Succeeded)
	assert.Equal(t, int32(3), atomic.LoadInt32(&resolver.calls))
}

func TestRun_PicksHistoryLimitByKind(t *testing.T) {
	purger := &scriptedPurger{}
	resolver := &countingResolver{limits: quota.UsageLimits{
		MaxTaskExecutionHistoryItems:     quota.Int64(5),
		MaxWorkflowExecutionHistoryItems: quota.Int64(8),
	}}
	list := []history.Owner{
		{Kind: history.OwnerTask, ID: 1, GroupID: 1},
		{Kind: history.OwnerWorkflow, ID: 2, GroupID: 1},
	}
	e := New(staticOwners{owners: list}, purger, resolver, &recordingReporter{}, logger.NewTestCtxLogger(), DefaultConfig())

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, purger.limits, 2)
	assert.Equal(t, int64(5), *purger.limits[0])
	assert.Equal(t, int64(8), *purger.limits[1])
}

func TestRun_OwnerListingFails(t *testing.T) {
	e := New(staticOwners{err: errors.New("db gone")}, &scriptedPurger{}, &countingResolver{},
		&recordingReporter{}, logger.NewTestCtxLogger(), DefaultConfig())

	_, err := e.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	purger := &scriptedPurger{}
	e := New(staticOwners{owners: owners(3, 1)}, purger, &countingResolver{}, &recordingReporter{},
		logger.NewTestCtxLogger(), DefaultConfig())

	summary, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failed)
	assert.Empty(t, purger.seen)
}

func TestRun_EndToEndWithDatabase(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)
	now := time.Now().UTC()

	g := h.CreateGroup("acme")
	plan := h.CreatePlan(&model.SubscriptionPlan{
		Name:                             "tight",
		MaxTaskExecutionHistoryItems:     quota.Int64(0),
		MaxWorkflowExecutionHistoryItems: quota.Int64(0),
	})
	h.Subscribe(g.ID, plan, now.Add(-time.Hour))

	task := h.CreateTask(g.ID, "nightly")
	wf := h.CreateWorkflow(g.ID, "etl")
	for i := 0; i < 4; i++ {
		h.CompletedTaskExecution(task.ID, now.Add(-time.Duration(i)*time.Minute))
		h.CompletedWorkflowExecution(wf.ID, now.Add(-time.Duration(i)*time.Minute))
	}
	h.RunningTaskExecution(task.ID, now.Add(-time.Hour))

	log := logger.NewTestCtxLogger()
	resolver := quota.NewResolver(quota.NewGormSubscriptionSource(db), log,
		quota.WithBaseline(quota.UsageLimits{
			MaxTaskExecutionHistoryItems:     quota.Int64(2),
			MaxWorkflowExecutionHistoryItems: quota.Int64(3),
		}))
	engine := history.NewEngine(history.NewGormExecutionStore(db), resolver, log)

	e := New(NewGormOwnerSource(db), engine, resolver, NewLogReporter(log), log, Config{Workers: 2, MaxPurgePerOwner: -1})
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Owners)
	assert.Equal(t, 0, summary.Failed)
	// task keeps 2 of 5 (one running), workflow keeps 3 of 4
	assert.Equal(t, 3+1, summary.Purged)
	assert.Equal(t, int64(2), h.CountWhere(&model.TaskExecution{}, "task_id = ?", task.ID))
	assert.Equal(t, int64(3), h.CountWhere(&model.WorkflowExecution{}, "workflow_id = ?", wf.ID))
	assert.True(t, log.HasLog("INFO", summary.Message()))

	for _, entry := range log.Logs() {
		if entry.Message == summary.Message() {
			assert.Equal(t, summary.RunID, entry.TraceID)
		}
	}
}

func TestGormOwnerSource(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)
	g := h.CreateGroup("acme")
	t1 := h.CreateTask(g.ID, "a")
	w1 := h.CreateWorkflow(g.ID, "b")

	got, err := NewGormOwnerSource(db).ListOwners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []history.Owner{
		{Kind: history.OwnerTask, ID: t1.ID, GroupID: g.ID},
		{Kind: history.OwnerWorkflow, ID: w1.ID, GroupID: g.ID},
	}, got)
}
