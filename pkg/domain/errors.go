package domain

import "fmt"

// The update path reports failures through exactly four kinds; callers can
// switch on them with errors.As and never see an open-ended payload shape.

// MalformedInputError rejects input before any store access: a timestamp
// that fails strict format validation, or an interval with start >= end.
type MalformedInputError struct {
	Message string
}

func (e MalformedInputError) Error() string { return e.Message }

// NotFoundError reports an unknown operation id, detected before lane
// acquisition.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("operation %s not found", e.ID)
}

// RuleViolationError reports a deterministic scheduling-rule rejection.
// Retrying with the same input cannot succeed.
type RuleViolationError struct {
	Violation Violation
}

func (e RuleViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Violation.Rule, e.Violation.Message)
}

// ConflictError reports that the lane's exclusive update scope could not be
// acquired within the bounded wait. Safe to retry with the same input.
type ConflictError struct {
	MachineID string
}

func (e ConflictError) Error() string {
	if e.MachineID == "" {
		return "machine is busy: update scope not acquired"
	}
	return fmt.Sprintf("machine %s is busy: update scope not acquired", e.MachineID)
}
