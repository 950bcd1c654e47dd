package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_Empty(t *testing.T) {
	resp := NewAggregator(0).Check(context.Background())
	assert.True(t, resp.IsHealthy())
	assert.Empty(t, resp.Checks)
}

func TestAggregator_AllHealthy(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register(CheckFunc("database", func(context.Context) error { return nil }))
	a.Register(CheckFunc("redis", func(context.Context) error { return nil }))
	a.SetMetadata("throttle_store", "redis")

	resp := a.Check(context.Background())
	assert.True(t, resp.IsHealthy())
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusHealthy, resp.Checks["redis"].Status)
	assert.Equal(t, "redis", resp.Metadata["throttle_store"])
}

func TestAggregator_OneFailing(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register(CheckFunc("database", func(context.Context) error { return nil }))
	a.Register(CheckFunc("redis", func(context.Context) error { return errors.New("connection refused") }))

	resp := a.Check(context.Background())
	assert.False(t, resp.IsHealthy())
	assert.Equal(t, StatusUnhealthy, resp.Checks["redis"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.Equal(t, StatusHealthy, resp.Checks["database"].Status)
}

func TestAggregator_Timeout(t *testing.T) {
	a := NewAggregator(20 * time.Millisecond)
	a.Register(CheckFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	resp := a.Check(context.Background())
	assert.False(t, resp.IsHealthy())
	assert.Contains(t, resp.Checks["slow"].Error, "deadline")
}
