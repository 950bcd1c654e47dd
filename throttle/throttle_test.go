package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedResolver struct {
	limits quota.UsageLimits
}

func (r fixedResolver) Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits {
	return r.limits
}

type brokenStore struct{}

func (brokenStore) Consume(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error) {
	return Decision{}, errors.New("connection reset")
}

func (brokenStore) Usage(ctx context.Context, groupID uint64) (Usage, error) {
	return Usage{}, errors.New("connection reset")
}

func newThrottle(t *testing.T, store CounterStore, limits quota.UsageLimits) (*Throttle, *logger.TestCtxLogger) {
	log := logger.NewTestCtxLogger()
	th, err := New(store, fixedResolver{limits: limits}, log)
	require.NoError(t, err)
	return th, log
}

func TestThrottle_BoundaryScenario(t *testing.T) {
	store := NewMemoryCounterStore()
	th, log := newThrottle(t, store, quota.UsageLimits{MaxAPICreditsPerMonth: quota.Int64(1000)})
	ctx := context.Background()
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	store.Set(1, Usage{Used: 999, LastUsedAt: &earlier})
	allowed, err := th.Allow(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, allowed)
	usage, _ := th.Usage(ctx, 1)
	assert.Equal(t, int64(1000), usage.Used)

	allowed, err = th.Allow(ctx, 1, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, allowed)
	usage, _ = th.Usage(ctx, 1)
	assert.Equal(t, int64(1000), usage.Used)
	assert.Equal(t, now, *usage.LastUsedAt)
	assert.True(t, log.HasLogWithField("WARN", "API credits exhausted", "group_id", uint64(1)))

	stale := now.AddDate(0, 0, -32)
	store.Set(1, Usage{Used: 1000, LastUsedAt: &stale})
	d, err := th.CheckAndConsume(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Used)
}

func TestThrottle_UnlimitedAlwaysAllows(t *testing.T) {
	th, _ := newThrottle(t, NewMemoryCounterStore(), quota.Unlimited())
	for i := 0; i < 10; i++ {
		d, err := th.CheckAndConsume(context.Background(), 1, time.Now())
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Nil(t, d.Limit)
	}
	usage, err := th.Usage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), usage.Used)
}

func TestThrottle_Enforce(t *testing.T) {
	th, _ := newThrottle(t, NewMemoryCounterStore(), quota.UsageLimits{MaxAPICreditsPerMonth: quota.Int64(1)})
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)

	_, err := th.Enforce(context.Background(), 1, now)
	require.NoError(t, err)

	d, err := th.Enforce(context.Background(), 1, now)
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, errors.Is(err, errcode.ErrAPICreditsExhausted))

	var le *errcode.LayeredError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 429, le.HTTPStatus())
	assert.Equal(t, "2025-01-01T00:00:00Z", le.Data()["retry_at"])
}

func TestThrottle_StoreFailure(t *testing.T) {
	th, log := newThrottle(t, brokenStore{}, quota.DefaultLimits())

	allowed, err := th.Allow(context.Background(), 1, time.Now())
	require.Error(t, err)
	assert.False(t, allowed)
	assert.True(t, errors.Is(err, errcode.ErrQuotaStore))
	assert.True(t, log.HasLog("ERROR", "API credit counter failed"))
}
