package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutionStatus_SetsAreDisjoint(t *testing.T) {
	for _, s := range InProgressStatuses() {
		assert.True(t, s.IsInProgress(), s)
		assert.False(t, s.IsCompleted(), s)
	}
	for _, s := range CompletedStatuses() {
		assert.True(t, s.IsCompleted(), s)
		assert.False(t, s.IsInProgress(), s)
	}
	assert.False(t, ExecutionStatus("UNKNOWN").IsCompleted())
	assert.False(t, ExecutionStatus("UNKNOWN").IsInProgress())
}

func TestSubscription_IsActiveAt(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"open ended", Subscription{Active: true, StartAt: past}, true},
		{"starts exactly now", Subscription{Active: true, StartAt: now}, true},
		{"not started", Subscription{Active: true, StartAt: future}, false},
		{"inactive flag", Subscription{Active: false, StartAt: past}, false},
		{"ends later", Subscription{Active: true, StartAt: past, EndAt: &future}, true},
		{"ended", Subscription{Active: true, StartAt: past, EndAt: &past}, false},
		{"ends exactly now", Subscription{Active: true, StartAt: past, EndAt: &now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sub.IsActiveAt(now))
		})
	}
}

func TestCompletedStatuses_ReturnsCopy(t *testing.T) {
	s := CompletedStatuses()
	s[0] = "MUTATED"
	assert.Equal(t, StatusSucceeded, CompletedStatuses()[0])
}
