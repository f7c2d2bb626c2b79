package session

import (
	"context"

	"github.com/hupe1980/agentgraph/core"
)

// Store associates thread ids with their latest conversation state.
type Store interface {
	// Acquire takes the exclusive lease for threadID.
	Acquire(ctx context.Context, threadID string) (*Lease, error)

	// Get returns a snapshot of the stored state without taking the lease.
	Get(threadID string) (*core.ConversationState, bool)

	// Clear forgets the thread. It fails with core.ErrThreadBusy while the
	// thread is leased.
	Clear(threadID string) error
}
