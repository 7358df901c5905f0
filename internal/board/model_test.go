package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcore/pkg/domain"
)

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 15, hour, min, 0, 0, time.UTC)
}

func testOrders() []domain.WorkOrder {
	return []domain.WorkOrder{
		{ID: "WO-1", Product: "Gear", Qty: 10, Operations: []domain.Operation{
			{ID: "OP-1", WorkOrderID: "WO-1", Index: 1, MachineID: "M1", Name: "Cut", Start: at(8, 0), End: at(10, 0)},
			{ID: "OP-2", WorkOrderID: "WO-1", Index: 2, MachineID: "M2", Name: "Mill", Start: at(10, 10), End: at(12, 0)},
		}},
		{ID: "WO-2", Product: "Shaft", Qty: 5, Operations: []domain.Operation{
			{ID: "OP-3", WorkOrderID: "WO-2", Index: 1, MachineID: "M1", Name: "Turn", Start: at(10, 40), End: at(12, 15)},
		}},
	}
}

func interval(t *testing.T, m *Model, id string) domain.Interval {
	t.Helper()
	op, ok := m.Operation(id)
	require.True(t, ok)
	return op.Interval()
}

func TestOptimisticApplyAndAccept(t *testing.T) {
	m := New(testOrders())

	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-3"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-3", Start: at(11, 0), End: at(12, 35)}))

	// Optimistic value is visible before any server confirmation.
	assert.Equal(t, at(11, 0), interval(t, m, "OP-3").Start)

	require.NoError(t, m.Apply(EditSubmitted{OperationID: "OP-3"}))
	assert.Equal(t, StatePendingCommit, m.State("OP-3"))

	// Server normalizes to a slightly different canonical value; it wins.
	require.NoError(t, m.Apply(CommitAccepted{OperationID: "OP-3", Start: at(11, 0), End: at(12, 35)}))
	assert.Equal(t, StateIdle, m.State("OP-3"))
	assert.Equal(t, at(12, 35), interval(t, m, "OP-3").End)
}

func TestRejectionRevertsToSnapshot(t *testing.T) {
	m := New(testOrders())
	before := interval(t, m, "OP-2")

	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-2"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-2", Start: at(9, 50), End: at(12, 0)}))
	require.NoError(t, m.Apply(EditSubmitted{OperationID: "OP-2"}))

	require.NoError(t, m.Apply(CommitRejected{OperationID: "OP-2", Rule: domain.RulePrecedence, Message: "must start after OP-1 ends"}))
	assert.Equal(t, StateRevertingLocal, m.State("OP-2"))
	assert.Equal(t, before, interval(t, m, "OP-2"))
	assert.Contains(t, m.Notice(), "R1")
	assert.Contains(t, m.Notice(), "must start after OP-1 ends")

	require.NoError(t, m.Apply(RevertRendered{OperationID: "OP-2"}))
	assert.Equal(t, StateIdle, m.State("OP-2"))
}

func TestSingleInFlightRequestPerOperation(t *testing.T) {
	m := New(testOrders())
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-1"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-1", Start: at(8, 30), End: at(9, 30)}))
	require.NoError(t, m.Apply(EditSubmitted{OperationID: "OP-1"}))

	// Further gestures on OP-1 are rejected, not queued.
	assert.ErrorIs(t, m.Apply(EditStarted{OperationID: "OP-1"}), ErrEditInFlight)
	assert.ErrorIs(t, m.Apply(EditSubmitted{OperationID: "OP-1"}), ErrEditInFlight)

	// Other operations stay editable while OP-1 is in flight.
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-2"}))
}

func TestDiscardDraftWithoutServerCall(t *testing.T) {
	m := New(testOrders())
	before := interval(t, m, "OP-1")

	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-1"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-1", Start: at(9, 0), End: at(11, 0)}))
	require.NoError(t, m.Apply(EditDiscarded{OperationID: "OP-1"}))

	assert.Equal(t, before, interval(t, m, "OP-1"))
	assert.Equal(t, StateIdle, m.State("OP-1"))
	assert.ErrorIs(t, m.Apply(DraftAdjusted{OperationID: "OP-1", Start: at(9, 0), End: at(11, 0)}), ErrNoDraft)
}

func TestHighlightFollowsWorkOrder(t *testing.T) {
	m := New(testOrders())
	require.NoError(t, m.Apply(Selected{OperationID: "OP-1"}))
	assert.Equal(t, "WO-1", m.SelectedWorkOrder())
	assert.True(t, m.Highlighted("OP-1"))
	assert.True(t, m.Highlighted("OP-2"))
	assert.False(t, m.Highlighted("OP-3"))

	require.NoError(t, m.Apply(Deselected{}))
	assert.Equal(t, "", m.SelectedWorkOrder())
	assert.False(t, m.Highlighted("OP-1"))
}

func TestDeselectDiscardsDraftsButNotPending(t *testing.T) {
	m := New(testOrders())
	before := interval(t, m, "OP-1")

	// OP-1 has an unsaved draft; OP-2 has a request in flight.
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-1"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-1", Start: at(9, 0), End: at(11, 0)}))
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-2"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-2", Start: at(10, 30), End: at(12, 20)}))
	require.NoError(t, m.Apply(EditSubmitted{OperationID: "OP-2"}))

	require.NoError(t, m.Apply(Deselected{}))

	assert.Equal(t, before, interval(t, m, "OP-1"))
	assert.Equal(t, StatePendingCommit, m.State("OP-2"))
	assert.Equal(t, at(10, 30), interval(t, m, "OP-2").Start)
}

func TestShiftDraft(t *testing.T) {
	m := New(testOrders())
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-1"}))
	require.NoError(t, m.ShiftDraft("OP-1", 15*time.Minute, 15*time.Minute))
	got := interval(t, m, "OP-1")
	assert.Equal(t, at(8, 15), got.Start)
	assert.Equal(t, at(10, 15), got.End)
}

func TestResetKeepsInFlightGuard(t *testing.T) {
	m := New(testOrders())
	require.NoError(t, m.Apply(EditStarted{OperationID: "OP-1"}))
	require.NoError(t, m.Apply(DraftAdjusted{OperationID: "OP-1", Start: at(8, 30), End: at(9, 30)}))
	require.NoError(t, m.Apply(EditSubmitted{OperationID: "OP-1"}))

	m.Reset(testOrders())
	assert.Equal(t, StatePendingCommit, m.State("OP-1"))
	assert.ErrorIs(t, m.Apply(EditStarted{OperationID: "OP-1"}), ErrEditInFlight)
}

func TestUnknownOperationGuards(t *testing.T) {
	m := New(testOrders())
	assert.ErrorIs(t, m.Apply(EditStarted{OperationID: "OP-404"}), ErrUnknownOperation)
	assert.ErrorIs(t, m.Apply(Selected{OperationID: "OP-404"}), ErrUnknownOperation)
}
