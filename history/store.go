package history

import (
	"context"
	"errors"
)

// ErrExecutionNotFound the execution was already gone when deleted
var ErrExecutionNotFound = errors.New("history: execution not found")

// ExecutionStore query and delete access to the executions of one owner
type ExecutionStore interface {
	// ListCompleted completed executions ordered by finish time, oldest first
	ListCompleted(ctx context.Context, owner Owner) ([]Execution, error)

	// ListInProgress in-progress executions ordered by start time, oldest first
	ListInProgress(ctx context.Context, owner Owner) ([]Execution, error)

	// Delete removes one execution of owner with its dependent events and alerts
	Delete(ctx context.Context, owner Owner, id uint64) error
}
