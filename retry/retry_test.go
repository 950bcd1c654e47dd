package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	}, MaxAttempts(5), Backoff(NoBackoff()))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	boom := errors.New("constraint failed")
	err := Do(context.Background(), func() error {
		calls++
		return boom
	}, MaxAttempts(5), Backoff(NoBackoff()), Condition(RetryOnLockConflict()))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, GetAttempts(err))
}

func TestDo_MaxAttempts(t *testing.T) {
	var retried []int
	err := Do(context.Background(), func() error {
		return errors.New("deadlock detected")
	}, MaxAttempts(3), Backoff(NoBackoff()), OnRetry(func(attempt int, err error) {
		retried = append(retried, attempt)
	}))

	var me *MultiError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 3, me.Attempts)
	assert.Len(t, me.Errors, 3)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Contains(t, me.String(), "attempt 3")
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_DeadlineShorterThanBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Do(ctx, func() error {
		return errors.New("transient")
	}, Backoff(ConstantBackoff(time.Second)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, Backoff(NoBackoff()))

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestIsLockConflict(t *testing.T) {
	assert.True(t, IsLockConflict(errors.New("Error 1213 (40001): Deadlock found when trying to get lock")))
	assert.True(t, IsLockConflict(errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")))
	assert.True(t, IsLockConflict(errors.New("database is locked")))
	assert.False(t, IsLockConflict(errors.New("UNIQUE constraint failed")))
	assert.False(t, IsLockConflict(nil))
}

func TestConditions(t *testing.T) {
	target := errors.New("target")
	assert.True(t, RetryOnErrors(target).ShouldRetry(target, 1))
	assert.False(t, RetryOnErrors(target).ShouldRetry(errors.New("other"), 1))
	assert.False(t, NeverRetry().ShouldRetry(target, 1))
	assert.True(t, Or(NeverRetry(), AlwaysRetry()).ShouldRetry(target, 1))
}

func TestBackoff(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, WithJitter(0), WithMaxDelay(time.Second))
	assert.Equal(t, 100*time.Millisecond, b.Next(1))
	assert.Equal(t, 200*time.Millisecond, b.Next(2))
	assert.Equal(t, 400*time.Millisecond, b.Next(3))
	assert.Equal(t, time.Second, b.Next(10))
	assert.Zero(t, b.Next(0))

	assert.Equal(t, 50*time.Millisecond, ConstantBackoff(50*time.Millisecond).Next(7))
	assert.Zero(t, NoBackoff().Next(3))

	jittered := ExponentialBackoff(time.Second, WithJitter(0.5)).Next(1)
	assert.GreaterOrEqual(t, jittered, 500*time.Millisecond)
	assert.LessOrEqual(t, jittered, 1500*time.Millisecond)
}
