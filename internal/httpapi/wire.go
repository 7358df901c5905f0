package httpapi

import (
	"schedcore/internal/core"
	"schedcore/pkg/domain"
)

// WorkOrderPayload is the wire form of a work order. Operation timestamps
// are rendered in the canonical YYYY-MM-DDTHH:mm:ssZ form.
type WorkOrderPayload struct {
	ID         string             `json:"id"`
	Product    string             `json:"product"`
	Qty        int                `json:"qty"`
	Operations []OperationPayload `json:"operations"`
}

// OperationPayload is the wire form of an operation.
type OperationPayload struct {
	ID          string `json:"id"`
	WorkOrderID string `json:"workOrderId"`
	Index       int    `json:"index"`
	MachineID   string `json:"machineId"`
	Name        string `json:"name"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// UpdateRequest is the body of PUT /operations/{id}.
type UpdateRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UpdateResponse confirms a committed update with the canonical interval.
type UpdateResponse struct {
	Message string     `json:"message"`
	Data    UpdateData `json:"data"`
}

// UpdateData carries the committed canonical record.
type UpdateData struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ErrorResponse is the envelope for every rejection. Rule is present only
// for scheduling-rule violations; malformed input, unknown ids, and lane
// contention carry a bare message.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the inner error payload.
type ErrorBody struct {
	Rule    domain.RuleCode `json:"rule,omitempty"`
	Message string          `json:"message"`
}

// WorkOrderPayloads converts domain work orders to their wire form.
func WorkOrderPayloads(orders []domain.WorkOrder) []WorkOrderPayload {
	out := make([]WorkOrderPayload, 0, len(orders))
	for _, wo := range orders {
		payload := WorkOrderPayload{
			ID:         wo.ID,
			Product:    wo.Product,
			Qty:        wo.Qty,
			Operations: make([]OperationPayload, 0, len(wo.Operations)),
		}
		for _, op := range wo.Operations {
			payload.Operations = append(payload.Operations, OperationPayload{
				ID:          op.ID,
				WorkOrderID: op.WorkOrderID,
				Index:       op.Index,
				MachineID:   op.MachineID,
				Name:        op.Name,
				Start:       core.FormatWireTime(op.Start),
				End:         core.FormatWireTime(op.End),
			})
		}
		out = append(out, payload)
	}
	return out
}

// Operation converts a wire operation back to its domain form. Timestamps
// are validated strictly.
func (p OperationPayload) Operation() (domain.Operation, error) {
	start, err := core.ParseWireTime(p.Start)
	if err != nil {
		return domain.Operation{}, err
	}
	end, err := core.ParseWireTime(p.End)
	if err != nil {
		return domain.Operation{}, err
	}
	return domain.Operation{
		ID:          p.ID,
		WorkOrderID: p.WorkOrderID,
		Index:       p.Index,
		MachineID:   p.MachineID,
		Name:        p.Name,
		Start:       start,
		End:         end,
	}, nil
}
