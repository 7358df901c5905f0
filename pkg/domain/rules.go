package domain

import (
	"fmt"
	"sort"
)

// RuleCode identifies a scheduling constraint.
type RuleCode string

// Scheduling rule identifiers surfaced to clients on rejection.
const (
	// RulePrecedence requires operation k to start no earlier than
	// operation k-1 of the same work order ends.
	RulePrecedence RuleCode = "R1"
	// RuleLaneExclusive forbids overlapping intervals within a machine lane.
	RuleLaneExclusive RuleCode = "R2"
	// RuleNoPast forbids committing a start earlier than the validation-time
	// wall clock.
	RuleNoPast RuleCode = "R3"
)

// Violation describes a single broken scheduling rule.
type Violation struct {
	Rule        RuleCode `json:"rule"`
	Message     string   `json:"message"`
	OperationID string   `json:"operationId,omitempty"`
}

// CheckScheduleIntegrity verifies the structural committed-state invariants
// over a full schedule: well-formed intervals, contiguous 1-based indexes,
// in-order precedence within each work order, and lane exclusivity across
// work orders. The no-past rule is validation-time only and not re-checked
// here, since previously committed operations legitimately age into the past.
func CheckScheduleIntegrity(orders []WorkOrder) error {
	lanes := make(map[string][]Operation)
	for _, wo := range orders {
		ops := make([]Operation, len(wo.Operations))
		copy(ops, wo.Operations)
		sort.Slice(ops, func(i, j int) bool { return ops[i].Index < ops[j].Index })
		for i, op := range ops {
			if op.Index != i+1 {
				return MalformedInputError{Message: fmt.Sprintf("work order %s: operation indexes are not contiguous at %s", wo.ID, op.ID)}
			}
			if !op.Start.Before(op.End) {
				return MalformedInputError{Message: fmt.Sprintf("operation %s: start must be before end", op.ID)}
			}
			if i > 0 && op.Start.Before(ops[i-1].End) {
				return RuleViolationError{Violation: Violation{
					Rule:        RulePrecedence,
					Message:     fmt.Sprintf("operation %s starts before %s ends", op.ID, ops[i-1].ID),
					OperationID: op.ID,
				}}
			}
			lanes[op.MachineID] = append(lanes[op.MachineID], op)
		}
	}
	for machine, ops := range lanes {
		sort.Slice(ops, func(i, j int) bool { return ops[i].Start.Before(ops[j].Start) })
		for i := 1; i < len(ops); i++ {
			if Overlaps(ops[i-1].Interval(), ops[i].Interval()) {
				return RuleViolationError{Violation: Violation{
					Rule:        RuleLaneExclusive,
					Message:     fmt.Sprintf("operations %s and %s overlap on machine %s", ops[i-1].ID, ops[i].ID, machine),
					OperationID: ops[i].ID,
				}}
			}
		}
	}
	return nil
}
