package core

import (
	"context"
	"errors"
	"time"

	"schedcore/pkg/domain"
)

// DefaultLaneWait bounds how long an update waits for its lane's exclusive
// scope before surfacing a retryable conflict.
const DefaultLaneWait = 2 * time.Second

// Coordinator orchestrates read, validate, and write as one atomic unit
// scoped to the affected machine lane. Validation failures are terminal for
// a request; only lane contention is retried, once.
type Coordinator struct {
	store     domain.Store
	validator Validator
	locks     *laneLocks
	laneWait  time.Duration
	nowFn     func() time.Time
	metrics   MetricsRecorder
}

// CoordinatorOption customizes Coordinator construction.
type CoordinatorOption func(*Coordinator)

// WithClock overrides the wall clock, for tests.
func WithClock(fn func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if fn != nil {
			c.nowFn = fn
		}
	}
}

// WithLaneWait overrides the bounded lane-acquisition wait.
func WithLaneWait(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.laneWait = d
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) CoordinatorOption {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewCoordinator constructs a coordinator over the supplied store.
func NewCoordinator(store domain.Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:    store,
		locks:    newLaneLocks(),
		laneWait: DefaultLaneWait,
		nowFn:    time.Now,
		metrics:  NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateOperation applies a proposed interval to the identified operation
// and returns the committed canonical record, or the rejection unchanged.
// Lane contention is retried once internally before being surfaced.
func (c *Coordinator) UpdateOperation(ctx context.Context, id string, start, end time.Time) (domain.Operation, error) {
	began := time.Now()
	committed, err := c.tryUpdate(ctx, id, start, end)
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		committed, err = c.tryUpdate(ctx, id, start, end)
	}
	c.metrics.ObserveUpdate(outcomeLabel(err), time.Since(began))
	return committed, err
}

func (c *Coordinator) tryUpdate(ctx context.Context, id string, start, end time.Time) (domain.Operation, error) {
	// Resolve the lane before locking; unknown ids fail without touching
	// any lane scope.
	current, ok := c.store.GetOperation(id)
	if !ok {
		return domain.Operation{}, domain.NotFoundError{ID: id}
	}

	release, err := c.locks.acquire(ctx, current.MachineID, c.laneWait)
	if err != nil {
		return domain.Operation{}, err
	}
	defer release()

	var committed domain.Operation
	err = c.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		// Re-fetch everything inside the acquired scope; the pre-lock read
		// only identified the lane.
		op, ok := tx.FindOperation(id)
		if !ok {
			return domain.NotFoundError{ID: id}
		}
		var predecessor, successor *domain.Operation
		if p, ok := tx.Predecessor(op); ok {
			predecessor = &p
		}
		if n, ok := tx.Successor(op); ok {
			successor = &n
		}
		occupants := tx.LaneOccupants(op.MachineID, op.ID)

		normalized, err := c.validator.Validate(Candidate{OperationID: op.ID, Start: start, End: end},
			op, predecessor, successor, occupants, c.nowFn())
		if err != nil {
			return err
		}
		committed, err = tx.SetOperationTimes(op.ID, normalized.Start, normalized.End)
		return err
	})
	if err != nil {
		return domain.Operation{}, err
	}
	return committed, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.As(err, new(domain.MalformedInputError)):
		return OutcomeMalformed
	case errors.As(err, new(domain.NotFoundError)):
		return OutcomeNotFound
	case errors.As(err, new(domain.RuleViolationError)):
		return OutcomeRejected
	case errors.As(err, new(domain.ConflictError)):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
