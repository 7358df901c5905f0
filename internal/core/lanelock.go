package core

import (
	"context"
	"sync"
	"time"

	"schedcore/pkg/domain"
)

// laneLocks hands out a one-token channel semaphore per machine lane. A held
// token is the exclusive update scope for that lane: updates to different
// lanes proceed fully in parallel, updates to the same lane are strictly
// serialized. Each update needs exactly one lane, so no deadlock is possible.
type laneLocks struct {
	mu    sync.Mutex
	lanes map[string]chan struct{}
}

func newLaneLocks() *laneLocks {
	return &laneLocks{lanes: make(map[string]chan struct{})}
}

func (l *laneLocks) lane(machineID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.lanes[machineID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.lanes[machineID] = sem
	}
	return sem
}

// acquire blocks until the lane token is available, the bounded wait
// elapses, or ctx is done. An exhausted wait is a retryable conflict, not a
// rule violation. The returned release func must be called exactly once.
func (l *laneLocks) acquire(ctx context.Context, machineID string, wait time.Duration) (func(), error) {
	sem := l.lane(machineID)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, domain.ConflictError{MachineID: machineID}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
