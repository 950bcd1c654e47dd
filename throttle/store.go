package throttle

import (
	"context"
	"time"
)

// CounterStore atomic read-check-increment of the per-group counter
type CounterStore interface {
	// Consume applies ApplyCredit to the stored counter of groupID as one atomic step
	Consume(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error)

	// Usage current stored counter; a missing counter is the zero Usage
	Usage(ctx context.Context, groupID uint64) (Usage, error)
}
