package core

import (
	"fmt"
	"sync"
)

// StepLimiter enforces the recursion limit: the maximum number of deciding
// entries allowed in one run. The counter never exceeds max.
type StepLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewStepLimiter creates a new limiter with a max number of steps, starting
// from an already consumed count. If max == 0, unlimited steps are allowed.
func NewStepLimiter(max, start int) *StepLimiter {
	if max > 0 && start > max {
		start = max
	}
	return &StepLimiter{max: max, count: start}
}

// Enter records a deciding entry. It returns ErrRecursionLimitExceeded,
// leaving the counter unchanged, when the entry would exceed the limit.
func (sl *StepLimiter) Enter() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.max > 0 && sl.count+1 > sl.max {
		return fmt.Errorf("%w: limit %d", ErrRecursionLimitExceeded, sl.max)
	}

	sl.count++

	return nil
}

// Count returns the current number of steps taken.
func (sl *StepLimiter) Count() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	return sl.count
}

// Remaining returns how many deciding entries are left before hitting the limit.
func (sl *StepLimiter) Remaining() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.max == 0 {
		return -1 // unlimited
	}

	return sl.max - sl.count
}
