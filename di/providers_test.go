package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-quota/config"
	"github.com/KOMKZ/go-yogan-quota/enforcer"
	"github.com/KOMKZ/go-yogan-quota/health"
	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/testutil"
	"github.com/KOMKZ/go-yogan-quota/throttle"
	"github.com/KOMKZ/go-yogan-quota/volume"
	"github.com/alicebob/miniredis/v2"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newInjector(t *testing.T, yaml string) *do.RootScope {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	dir := t.TempDir()
	dsn := filepath.Join(dir, "quota.db")
	content := fmt.Sprintf(`
database:
  default:
    driver: sqlite
    dsn: %s
    enable_log: false
logger:
  level: error
  enable_console: false
%s`, dsn, yaml)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	injector := New()
	RegisterProviders(injector, ConfigOptions{ConfigPath: dir})
	t.Cleanup(func() { injector.Shutdown() })

	db := do.MustInvoke[*gorm.DB](injector)
	require.NoError(t, model.AutoMigrate(db))
	return injector
}

func TestProvideAppConfig_InvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	injector := New()
	defer injector.Shutdown()
	RegisterProviders(injector, ConfigOptions{ConfigPath: t.TempDir()})

	_, err := do.Invoke[*config.AppConfig](injector)
	assert.Error(t, err)

	_, err = do.Invoke[*gorm.DB](injector)
	assert.Error(t, err)
}

func TestProviders_ResolverUsesConfiguredBaseline(t *testing.T) {
	injector := newInjector(t, `
throttle:
  store: memory
quota:
  default_limits:
    max_events: -1
    max_task_execution_history_items: 3
`)

	resolver := do.MustInvoke[*quota.Resolver](injector)
	limits := resolver.Resolve(context.Background(), 1, time.Now())
	assert.Nil(t, limits.MaxEvents)
	assert.Equal(t, int64(3), *limits.MaxTaskExecutionHistoryItems)
}

func TestProviders_EnforcerPurgesOverQuotaOwners(t *testing.T) {
	injector := newInjector(t, `
throttle:
  store: memory
quota:
  default_limits:
    max_task_execution_history_items: 2
enforcer:
  workers: 2
`)
	db := do.MustInvoke[*gorm.DB](injector)
	h := testutil.NewDBHelper(t, db)
	group := h.CreateGroup("acme")
	task := h.CreateTask(group.ID, "nightly")
	base := time.Now().Add(-time.Hour)
	for k := 0; k < 5; k++ {
		h.CompletedTaskExecution(task.ID, base.Add(time.Duration(k)*time.Minute))
	}

	e := do.MustInvoke[*enforcer.HistoryEnforcer](injector)
	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Owners)
	assert.Equal(t, 3, summary.Purged)

	assert.Equal(t, int64(2), h.CountWhere(&model.TaskExecution{}, "task_id = ?", task.ID))

	engine := do.MustInvoke[*history.Engine](injector)
	purged, err := engine.PurgeHistory(context.Background(), history.Owner{Kind: history.OwnerTask, ID: task.ID, GroupID: group.ID}, 0, history.Unbounded)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestProviders_VolumeWriter(t *testing.T) {
	injector := newInjector(t, `
throttle:
  store: memory
quota:
  default_limits:
    max_events: 1
`)
	group := testutil.NewDBHelper(t, do.MustInvoke[*gorm.DB](injector)).CreateGroup("acme")
	w := do.MustInvoke[*volume.Writer](injector)

	_, err := w.CreateEvent(context.Background(), &model.Event{GroupID: group.ID, EventAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	res, err := w.CreateEvent(context.Background(), &model.Event{GroupID: group.ID, EventAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evicted)
}

func TestProviders_ThrottleStores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		yaml  string
		store interface{}
	}{
		{"memory", "throttle:\n  store: memory\n", &throttle.MemoryCounterStore{}},
		{"gorm", "throttle:\n  store: gorm\n", &throttle.GormCounterStore{}},
		{"redis", fmt.Sprintf("throttle:\n  store: redis\nredis:\n  addr: %s\n", mr.Addr()), &throttle.RedisCounterStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			injector := newInjector(t, tt.yaml+`
quota:
  default_limits:
    max_api_credits_per_month: 2
`)
			store := do.MustInvoke[throttle.CounterStore](injector)
			assert.IsType(t, tt.store, store)

			group := testutil.NewDBHelper(t, do.MustInvoke[*gorm.DB](injector)).CreateGroup("acme")

			th := do.MustInvoke[*throttle.Throttle](injector)
			now := time.Now()
			for k := 0; k < 2; k++ {
				ok, err := th.Allow(context.Background(), group.ID, now)
				require.NoError(t, err)
				assert.True(t, ok)
			}
			ok, err := th.Allow(context.Background(), group.ID, now)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestProvideHealthAggregator(t *testing.T) {
	mr := miniredis.RunT(t)
	injector := newInjector(t, fmt.Sprintf("throttle:\n  store: redis\nredis:\n  addr: %s\n", mr.Addr()))

	agg := do.MustInvoke[*health.Aggregator](injector)
	resp := agg.Check(context.Background())
	assert.True(t, resp.IsHealthy())
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, "redis", resp.Metadata["throttle_store"])

	mr.Close()
	resp = agg.Check(context.Background())
	assert.False(t, resp.IsHealthy())
	assert.Equal(t, health.StatusUnhealthy, resp.Checks["redis"].Status)
	assert.Equal(t, health.StatusHealthy, resp.Checks["database"].Status)
}

func TestProvideDefaultDB_MissingConnection(t *testing.T) {
	assert.EqualError(t, ErrComponentNotFound("database connection: default"), "component not found: database connection: default")
}
