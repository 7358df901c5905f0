// Package core implements the scheduling constraint validator and the
// transactional update coordinator built around it.
package core

import (
	"fmt"
	"time"

	"schedcore/pkg/domain"
)

// Candidate is a proposed replacement interval for one operation.
type Candidate struct {
	OperationID string
	Start       time.Time
	End         time.Time
}

// Validator decides whether a candidate update violates the scheduling
// constraints. It performs no I/O and is deterministic given identical
// inputs; the caller pre-fetches the neighboring state.
type Validator struct{}

// Validate runs the checks in fixed precedence order and short-circuits on
// the first failure, so a single violation is reported even when several
// rules are broken:
//
//  1. R3 no-past — cheapest and most time-sensitive; a stale start makes
//     the remaining checks moot.
//  2. Well-formed interval — a distinct malformed-input kind, not a rule.
//  3. R1 precedence against the predecessor, then the successor.
//  4. R2 lane exclusivity against every other occupant, half-open.
//
// On accept it returns the normalized interval to persist.
func (Validator) Validate(c Candidate, current domain.Operation, predecessor, successor *domain.Operation, laneOccupants []domain.Operation, now time.Time) (domain.Interval, error) {
	start := NormalizeInstant(c.Start)
	end := NormalizeInstant(c.End)

	if start.Before(NormalizeInstant(now)) {
		return domain.Interval{}, reject(domain.RuleNoPast, c.OperationID,
			"start time cannot be in the past")
	}
	if !start.Before(end) {
		return domain.Interval{}, domain.MalformedInputError{Message: "start must be before end"}
	}
	if predecessor != nil && start.Before(predecessor.End) {
		return domain.Interval{}, reject(domain.RulePrecedence, c.OperationID,
			fmt.Sprintf("must start at or after %s, when %s ends", FormatWireTime(predecessor.End), predecessor.ID))
	}
	if successor != nil && end.After(successor.Start) {
		return domain.Interval{}, reject(domain.RulePrecedence, c.OperationID,
			fmt.Sprintf("must end at or before %s, when %s starts", FormatWireTime(successor.Start), successor.ID))
	}
	candidate := domain.Interval{Start: start, End: end}
	for _, o := range laneOccupants {
		if o.ID == c.OperationID {
			continue
		}
		if domain.Overlaps(candidate, o.Interval()) {
			return domain.Interval{}, reject(domain.RuleLaneExclusive, c.OperationID,
				fmt.Sprintf("overlaps %s (%s to %s) on machine %s", o.ID, FormatWireTime(o.Start), FormatWireTime(o.End), current.MachineID))
		}
	}
	return candidate, nil
}

func reject(rule domain.RuleCode, opID, message string) error {
	return domain.RuleViolationError{Violation: domain.Violation{
		Rule:        rule,
		Message:     message,
		OperationID: opID,
	}}
}
