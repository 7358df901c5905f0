package board

import (
	"time"

	"schedcore/pkg/domain"
)

// Event is a discrete input to the reconciliation model. Events replace the
// re-entrant mutation callbacks of ad-hoc shared visual state: every change
// flows through Model.Apply.
type Event interface {
	isEvent()
}

// Selected highlights every operation sharing the clicked operation's work
// order.
type Selected struct {
	OperationID string
}

// Deselected clears the highlight and discards unsaved drafts.
type Deselected struct{}

// EditStarted snapshots the pre-edit interval and opens a draft.
type EditStarted struct {
	OperationID string
}

// DraftAdjusted applies a new interval to the visual model while drafting.
type DraftAdjusted struct {
	OperationID string
	Start       time.Time
	End         time.Time
}

// EditDiscarded abandons the draft and restores the snapshot locally.
type EditDiscarded struct {
	OperationID string
}

// EditSubmitted freezes the draft as the optimistic value and marks the
// operation pending; the caller dispatches the server request.
type EditSubmitted struct {
	OperationID string
}

// CommitAccepted carries the server-canonical committed interval.
type CommitAccepted struct {
	OperationID string
	Start       time.Time
	End         time.Time
}

// CommitRejected carries the rejection surfaced to the user; Rule is empty
// for malformed-input, not-found, and contention failures.
type CommitRejected struct {
	OperationID string
	Rule        domain.RuleCode
	Message     string
}

// RevertRendered acknowledges that the reverted interval has been drawn,
// returning the operation to idle.
type RevertRendered struct {
	OperationID string
}

func (Selected) isEvent()       {}
func (Deselected) isEvent()     {}
func (EditStarted) isEvent()    {}
func (DraftAdjusted) isEvent()  {}
func (EditDiscarded) isEvent()  {}
func (EditSubmitted) isEvent()  {}
func (CommitAccepted) isEvent() {}
func (CommitRejected) isEvent() {}
func (RevertRendered) isEvent() {}
