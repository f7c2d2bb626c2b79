package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// ErrLeaseReleased is returned when a released lease is used.
var ErrLeaseReleased = errors.New("lease released")

// Options configures an InMemoryStore.
type Options struct {
	// WaitForLease makes Acquire block until a busy thread is free instead
	// of failing with core.ErrThreadBusy.
	WaitForLease bool

	Logger logging.Logger
}

type thread struct {
	lock  *semaphore.Weighted
	state *core.ConversationState
	refs  int // leases held or awaited, guarded by InMemoryStore.mu
}

// InMemoryStore is a volatile Store keeping states in a process local map.
// Stored and returned states are clones, so callers never share memory with
// the store.
type InMemoryStore struct {
	opts   Options
	logger logging.Logger

	mu      sync.Mutex
	threads map[string]*thread
}

// NewInMemoryStore constructs an empty in-memory thread store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{
		opts:    opts,
		logger:  logging.OrNoOp(opts.Logger),
		threads: make(map[string]*thread),
	}
}

// ref returns the entry for id, creating it lazily, and pins it until the
// matching unref.
func (s *InMemoryStore) ref(id string) *thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		th = &thread{lock: semaphore.NewWeighted(1)}
		s.threads[id] = th
	}
	th.refs++

	return th
}

// unref drops a pin. An entry without pins and without state is removed.
func (s *InMemoryStore) unref(id string, th *thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th.refs--
	if th.refs == 0 && th.state == nil && s.threads[id] == th {
		delete(s.threads, id)
	}
}

// Acquire takes the exclusive lease for threadID.
func (s *InMemoryStore) Acquire(ctx context.Context, threadID string) (*Lease, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, fmt.Errorf("thread id must not be empty")
	}

	th := s.ref(threadID)

	if s.opts.WaitForLease {
		if err := th.lock.Acquire(ctx, 1); err != nil {
			s.unref(threadID, th)
			return nil, fmt.Errorf("%w: %s: %v", core.ErrThreadBusy, threadID, err)
		}
	} else if !th.lock.TryAcquire(1) {
		s.unref(threadID, th)
		s.logger.Warn("session.thread.busy", "thread_id", threadID)
		return nil, fmt.Errorf("%w: %s", core.ErrThreadBusy, threadID)
	}

	s.logger.Debug("session.lease.acquired", "thread_id", threadID)

	return &Lease{store: s, threadID: threadID, th: th}, nil
}

// Get returns a snapshot of the stored state.
func (s *InMemoryStore) Get(threadID string) (*core.ConversationState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[threadID]
	if !ok || th.state == nil {
		return nil, false
	}

	return th.state.Clone(), true
}

// Clear forgets the stored state for threadID. Clearing an unknown thread is
// a no-op.
func (s *InMemoryStore) Clear(threadID string) error {
	s.mu.Lock()
	_, known := s.threads[threadID]
	s.mu.Unlock()

	if !known {
		return nil
	}

	th := s.ref(threadID)
	defer s.unref(threadID, th)

	if !th.lock.TryAcquire(1) {
		return fmt.Errorf("%w: %s", core.ErrThreadBusy, threadID)
	}
	defer th.lock.Release(1)

	s.mu.Lock()
	th.state = nil
	s.mu.Unlock()

	s.logger.Info("session.thread.cleared", "thread_id", threadID)

	return nil
}

// ThreadIDs returns the ids of threads holding state, sorted.
func (s *InMemoryStore) ThreadIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.threads))
	for id, th := range s.threads {
		if th.state != nil {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

// Lease is exclusive access to one thread. Release must be called exactly
// once; further calls are no-ops.
type Lease struct {
	store    *InMemoryStore
	threadID string
	th       *thread

	once     sync.Once
	released bool
}

// ThreadID returns the leased thread id.
func (l *Lease) ThreadID() string { return l.threadID }

// GetOrCreate returns a copy of the stored state, or a fresh state if the
// thread has none.
func (l *Lease) GetOrCreate() *core.ConversationState {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if l.th.state == nil {
		return core.NewConversationState(l.threadID)
	}

	return l.th.state.Clone()
}

// Save stores a copy of state as the latest state of the thread.
func (l *Lease) Save(state *core.ConversationState) error {
	if l.released {
		return ErrLeaseReleased
	}

	if state.ThreadID != l.threadID {
		return fmt.Errorf("state belongs to thread %q, lease is for %q", state.ThreadID, l.threadID)
	}

	l.store.mu.Lock()
	l.th.state = state.Clone()
	l.store.mu.Unlock()

	l.store.logger.Debug("session.thread.saved", "thread_id", l.threadID, "messages", len(state.Messages))

	return nil
}

// Release gives the lease back.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.released = true
		l.th.lock.Release(1)
		l.store.unref(l.threadID, l.th)
		l.store.logger.Debug("session.lease.released", "thread_id", l.threadID)
	})
}
