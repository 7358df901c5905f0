// Package domain defines the scheduling entities, rule primitives, error
// taxonomy, and persistence contracts used by schedcore.
package domain

import "time"

// WorkOrder groups an ordered sequence of operations producing one product.
type WorkOrder struct {
	ID         string      `json:"id"`
	Product    string      `json:"product"`
	Qty        int         `json:"qty"`
	Operations []Operation `json:"operations"`
}

// Operation is a time-boxed step of a work order, bound to a machine lane.
// ID, WorkOrderID, Index, and MachineID are immutable after seeding; only
// Start and End mutate, exclusively through the update coordinator.
type Operation struct {
	ID          string    `json:"id"`
	WorkOrderID string    `json:"workOrderId"`
	Index       int       `json:"index"`
	MachineID   string    `json:"machineId"`
	Name        string    `json:"name"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Interval is a half-open [Start, End) time span.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Interval returns the operation's scheduled span.
func (op Operation) Interval() Interval {
	return Interval{Start: op.Start, End: op.End}
}

// Overlaps reports whether two half-open intervals intersect. Abutting
// intervals (a.End == b.Start) do not overlap; exact abutment between lane
// neighbors is allowed. This is the product decision of record.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// CloneWorkOrder returns a deep copy of the work order and its operations.
func CloneWorkOrder(wo WorkOrder) WorkOrder {
	out := wo
	out.Operations = make([]Operation, len(wo.Operations))
	copy(out.Operations, wo.Operations)
	return out
}
