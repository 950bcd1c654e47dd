package throttle

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore process-local counters for tests and single-instance use
type MemoryCounterStore struct {
	mu     sync.Mutex
	usages map[uint64]Usage
}

var _ CounterStore = (*MemoryCounterStore)(nil)

// NewMemoryCounterStore creates an empty store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{usages: make(map[uint64]Usage)}
}

// Consume charges one credit under the store lock
func (s *MemoryCounterStore) Consume(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, decision := ApplyCredit(s.usages[groupID], now, limit)
	if decision.Allowed {
		s.usages[groupID] = next
	}
	return decision, nil
}

// Usage stored counter of groupID
func (s *MemoryCounterStore) Usage(ctx context.Context, groupID uint64) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usages[groupID], nil
}

// Set overwrites the counter of groupID
func (s *MemoryCounterStore) Set(groupID uint64, usage Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages[groupID] = usage
}
