package domain

import (
	"context"
	"time"
)

// Transaction exposes the operations a persistence implementation must
// support within an atomic scope. Neighbor lookups run against the
// transactional state, never a pre-transaction snapshot.
type Transaction interface {
	FindOperation(id string) (Operation, bool)
	// Predecessor returns the operation at index-1 within the same work order.
	Predecessor(op Operation) (Operation, bool)
	// Successor returns the operation at index+1 within the same work order.
	Successor(op Operation) (Operation, bool)
	// LaneOccupants returns every operation on the machine lane except the
	// one identified by excludeID, across all work orders.
	LaneOccupants(machineID, excludeID string) []Operation
	SetOperationTimes(id string, start, end time.Time) (Operation, error)
}

// View provides read-only access to committed state.
type View interface {
	ListWorkOrders() []WorkOrder
	FindOperation(id string) (Operation, bool)
	LaneOccupants(machineID, excludeID string) []Operation
}

// Snapshot captures a point-in-time clone of the full schedule, keyed by
// work-order id. It is the unit of durable persistence and of seeding.
type Snapshot struct {
	WorkOrders map[string]WorkOrder `json:"workorders"`
}

// Store is the abstraction over schedule backends. Either the transaction
// function's effects and its commit are visible together, or neither is.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(View) error) error
	ListWorkOrders() []WorkOrder
	GetOperation(id string) (Operation, bool)
	ExportSnapshot() Snapshot
	// ImportSnapshot replaces the full state; it fails if the snapshot
	// breaks the committed-state invariants.
	ImportSnapshot(Snapshot) error
}
