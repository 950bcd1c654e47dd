// Package history enforces execution history retention for tasks and workflows.
package history

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/quota"
)

// OwnerKind kind of entity owning executions
type OwnerKind string

const (
	OwnerTask     OwnerKind = "task"
	OwnerWorkflow OwnerKind = "workflow"
)

// Owner a task or workflow whose execution history is retained
type Owner struct {
	Kind    OwnerKind
	ID      uint64
	GroupID uint64
}

func (o Owner) String() string {
	return fmt.Sprintf("%s:%d", o.Kind, o.ID)
}

// HistoryQuota picks the history item limit matching the owner kind
func (o Owner) HistoryQuota(limits quota.UsageLimits) *int64 {
	if o.Kind == OwnerWorkflow {
		return limits.MaxWorkflowExecutionHistoryItems
	}
	return limits.MaxTaskExecutionHistoryItems
}

// Execution the fields of an execution record the purge needs
type Execution struct {
	ID         uint64
	Status     model.ExecutionStatus
	StartedAt  time.Time
	FinishedAt *time.Time
}

// OrderTime completed executions sort by finish time, the rest by start time
func (e Execution) OrderTime() time.Time {
	if e.Status.IsCompleted() && e.FinishedAt != nil {
		return *e.FinishedAt
	}
	return e.StartedAt
}

// Deletable only completed executions may be purged
func (e Execution) Deletable() bool {
	return e.Status.IsCompleted()
}
