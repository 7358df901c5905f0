// Package memory provides the in-memory schedule store used for tests,
// ephemeral environments, and as the transactional engine embedded by the
// durable backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"schedcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.Store = (*Store)(nil)

// Store keeps the full schedule in memory. Transactions run against a deep
// clone of the state under the store mutex and swap it in only after the
// transaction function succeeds and the committed-state invariants hold.
type Store struct {
	mu    sync.RWMutex
	state map[string]domain.WorkOrder
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{state: make(map[string]domain.WorkOrder)}
}

func cloneState(state map[string]domain.WorkOrder) map[string]domain.WorkOrder {
	out := make(map[string]domain.WorkOrder, len(state))
	for id, wo := range state {
		out[id] = domain.CloneWorkOrder(wo)
	}
	return out
}

func listWorkOrders(state map[string]domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(state))
	for _, wo := range state {
		clone := domain.CloneWorkOrder(wo)
		sort.Slice(clone.Operations, func(i, j int) bool {
			return clone.Operations[i].Index < clone.Operations[j].Index
		})
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func findOperation(state map[string]domain.WorkOrder, id string) (domain.Operation, bool) {
	for _, wo := range state {
		for _, op := range wo.Operations {
			if op.ID == id {
				return op, true
			}
		}
	}
	return domain.Operation{}, false
}

func laneOccupants(state map[string]domain.WorkOrder, machineID, excludeID string) []domain.Operation {
	var out []domain.Operation
	for _, wo := range state {
		for _, op := range wo.Operations {
			if op.MachineID == machineID && op.ID != excludeID {
				out = append(out, op)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// RunInTransaction executes fn within a transactional copy of the state and
// commits it only when fn succeeds and the schedule invariants still hold.
func (s *Store) RunInTransaction(_ context.Context, fn func(domain.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: cloneState(s.state)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := domain.CheckScheduleIntegrity(listWorkOrders(tx.state)); err != nil {
		return fmt.Errorf("commit would break schedule integrity: %w", err)
	}
	s.state = tx.state
	return nil
}

// View executes fn against a read-only snapshot of the state.
func (s *Store) View(_ context.Context, fn func(domain.View) error) error {
	s.mu.RLock()
	snapshot := cloneState(s.state)
	s.mu.RUnlock()
	return fn(storeView{state: snapshot})
}

// ListWorkOrders returns all work orders sorted by id, operations in index
// order.
func (s *Store) ListWorkOrders() []domain.WorkOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listWorkOrders(s.state)
}

// GetOperation returns the committed record for the given operation id.
func (s *Store) GetOperation(id string) (domain.Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findOperation(s.state, id)
}

// ExportSnapshot captures a deep copy of the full schedule.
func (s *Store) ExportSnapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{WorkOrders: cloneState(s.state)}
}

// ImportSnapshot replaces the state wholesale after checking integrity.
func (s *Store) ImportSnapshot(snapshot domain.Snapshot) error {
	state := cloneState(snapshot.WorkOrders)
	if state == nil {
		state = make(map[string]domain.WorkOrder)
	}
	if err := domain.CheckScheduleIntegrity(listWorkOrders(state)); err != nil {
		return fmt.Errorf("snapshot rejected: %w", err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

type transaction struct {
	state map[string]domain.WorkOrder
}

func (tx *transaction) FindOperation(id string) (domain.Operation, bool) {
	return findOperation(tx.state, id)
}

func (tx *transaction) Predecessor(op domain.Operation) (domain.Operation, bool) {
	return tx.sibling(op, op.Index-1)
}

func (tx *transaction) Successor(op domain.Operation) (domain.Operation, bool) {
	return tx.sibling(op, op.Index+1)
}

func (tx *transaction) sibling(op domain.Operation, index int) (domain.Operation, bool) {
	wo, ok := tx.state[op.WorkOrderID]
	if !ok {
		return domain.Operation{}, false
	}
	for _, candidate := range wo.Operations {
		if candidate.Index == index {
			return candidate, true
		}
	}
	return domain.Operation{}, false
}

func (tx *transaction) LaneOccupants(machineID, excludeID string) []domain.Operation {
	return laneOccupants(tx.state, machineID, excludeID)
}

func (tx *transaction) SetOperationTimes(id string, start, end time.Time) (domain.Operation, error) {
	for woID, wo := range tx.state {
		for i, op := range wo.Operations {
			if op.ID != id {
				continue
			}
			op.Start = start
			op.End = end
			wo.Operations[i] = op
			tx.state[woID] = wo
			return op, nil
		}
	}
	return domain.Operation{}, domain.NotFoundError{ID: id}
}

type storeView struct {
	state map[string]domain.WorkOrder
}

func (v storeView) ListWorkOrders() []domain.WorkOrder {
	return listWorkOrders(v.state)
}

func (v storeView) FindOperation(id string) (domain.Operation, bool) {
	return findOperation(v.state, id)
}

func (v storeView) LaneOccupants(machineID, excludeID string) []domain.Operation {
	return laneOccupants(v.state, machineID, excludeID)
}
