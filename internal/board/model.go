// Package board holds the client-side reconciliation model for the lane
// board: visual operation state, optimistic edits, and the per-operation
// commit state machine that keeps the view eventually consistent with the
// server.
package board

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"schedcore/pkg/domain"
)

// OpState is the commit state of one operation. Transitions are driven
// exclusively by events: Idle -> PendingCommit -> {Idle, RevertingLocal},
// and RevertingLocal -> Idle once the revert has been rendered.
type OpState int

// Per-operation commit states.
const (
	StateIdle OpState = iota
	StatePendingCommit
	StateRevertingLocal
)

func (s OpState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingCommit:
		return "pending_commit"
	case StateRevertingLocal:
		return "reverting_local"
	default:
		return fmt.Sprintf("OpState(%d)", int(s))
	}
}

// Model guard errors.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrEditInFlight     = errors.New("an update for this operation is already in flight")
	ErrNoDraft          = errors.New("no edit in progress for this operation")
	ErrNotIdle          = errors.New("operation is not idle")
)

type opEntry struct {
	op       domain.Operation
	state    OpState
	snapshot domain.Interval // pre-edit interval, meaningful while drafting or pending
	drafting bool
}

// Model is the visual source of truth between server confirmations. It is
// single-goroutine by contract, matching the event-loop client model.
type Model struct {
	entries     map[string]*opEntry
	highlightWO string
	notice      string
}

// New builds a model from the server's work-order list.
func New(orders []domain.WorkOrder) *Model {
	m := &Model{entries: make(map[string]*opEntry)}
	m.Reset(orders)
	return m
}

// Reset replaces the visual state with fresh server state, dropping drafts
// and highlights. Pending entries are kept pending so in-flight guards
// survive a refresh.
func (m *Model) Reset(orders []domain.WorkOrder) {
	pending := make(map[string]domain.Interval)
	for id, e := range m.entries {
		if e.state == StatePendingCommit {
			pending[id] = e.snapshot
		}
	}
	m.entries = make(map[string]*opEntry)
	for _, wo := range orders {
		for _, op := range wo.Operations {
			e := &opEntry{op: op, state: StateIdle}
			if snap, ok := pending[op.ID]; ok {
				e.state = StatePendingCommit
				e.snapshot = snap
			}
			m.entries[op.ID] = e
		}
	}
}

// Operations returns the visual operations sorted by machine, then start.
func (m *Model) Operations() []domain.Operation {
	out := make([]domain.Operation, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MachineID != out[j].MachineID {
			return out[i].MachineID < out[j].MachineID
		}
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Operation returns the visual record for an id.
func (m *Model) Operation(id string) (domain.Operation, bool) {
	e, ok := m.entries[id]
	if !ok {
		return domain.Operation{}, false
	}
	return e.op, true
}

// State returns the commit state for an id.
func (m *Model) State(id string) OpState {
	if e, ok := m.entries[id]; ok {
		return e.state
	}
	return StateIdle
}

// Notice returns the last user-facing status line.
func (m *Model) Notice() string { return m.notice }

// SelectedWorkOrder returns the highlighted work order, if any.
func (m *Model) SelectedWorkOrder() string { return m.highlightWO }

// Highlighted reports whether the operation shares the selected work order.
func (m *Model) Highlighted(id string) bool {
	e, ok := m.entries[id]
	return ok && m.highlightWO != "" && e.op.WorkOrderID == m.highlightWO
}

// Apply advances the model by one event. Unknown operations and guard
// violations return an error and leave the model untouched.
func (m *Model) Apply(ev Event) error {
	switch ev := ev.(type) {
	case Selected:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		m.highlightWO = e.op.WorkOrderID
		return nil
	case Deselected:
		// Clicking outside clears the highlight and discards any unsaved
		// drafts without a server call; pending requests are untouched.
		m.highlightWO = ""
		for _, e := range m.entries {
			if e.drafting {
				m.restoreSnapshot(e)
			}
		}
		return nil
	case EditStarted:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		if e.state == StatePendingCommit {
			return ErrEditInFlight
		}
		if e.state != StateIdle {
			return ErrNotIdle
		}
		if !e.drafting {
			e.snapshot = e.op.Interval()
			e.drafting = true
		}
		return nil
	case DraftAdjusted:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		if !e.drafting {
			return ErrNoDraft
		}
		e.op.Start = ev.Start
		e.op.End = ev.End
		return nil
	case EditDiscarded:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		if !e.drafting {
			return ErrNoDraft
		}
		m.restoreSnapshot(e)
		return nil
	case EditSubmitted:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		if e.state == StatePendingCommit {
			return ErrEditInFlight
		}
		if !e.drafting {
			return ErrNoDraft
		}
		// Optimistic value stays on screen; the snapshot is what an
		// eventual rejection reverts to.
		e.drafting = false
		e.state = StatePendingCommit
		return nil
	case CommitAccepted:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		// Server-canonical interval wins over the optimistic value.
		e.op.Start = ev.Start
		e.op.End = ev.End
		e.state = StateIdle
		m.notice = fmt.Sprintf("%s committed", ev.OperationID)
		return nil
	case CommitRejected:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		m.restoreSnapshot(e)
		e.state = StateRevertingLocal
		if ev.Rule != "" {
			m.notice = fmt.Sprintf("%s rejected: %s: %s", ev.OperationID, ev.Rule, ev.Message)
		} else {
			m.notice = fmt.Sprintf("%s rejected: %s", ev.OperationID, ev.Message)
		}
		return nil
	case RevertRendered:
		e, ok := m.entries[ev.OperationID]
		if !ok {
			return ErrUnknownOperation
		}
		if e.state == StateRevertingLocal {
			e.state = StateIdle
		}
		return nil
	default:
		return fmt.Errorf("unhandled event %T", ev)
	}
}

func (m *Model) restoreSnapshot(e *opEntry) {
	e.op.Start = e.snapshot.Start
	e.op.End = e.snapshot.End
	e.drafting = false
}

// ShiftDraft moves or resizes a draft by whole steps, a convenience for
// key-driven gestures.
func (m *Model) ShiftDraft(id string, startDelta, endDelta time.Duration) error {
	e, ok := m.entries[id]
	if !ok {
		return ErrUnknownOperation
	}
	if !e.drafting {
		return ErrNoDraft
	}
	return m.Apply(DraftAdjusted{
		OperationID: id,
		Start:       e.op.Start.Add(startDelta),
		End:         e.op.End.Add(endDelta),
	})
}
