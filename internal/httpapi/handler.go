// Package httpapi exposes the work-order schedule and the operation update
// path over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"schedcore/internal/core"
	"schedcore/pkg/domain"
)

// Handler serves GET /workorders and PUT /operations/{id}.
type Handler struct {
	Store       domain.Store
	Coordinator *core.Coordinator
}

// NewHandler constructs the schedule HTTP handler.
func NewHandler(store domain.Store, coordinator *core.Coordinator) *Handler {
	return &Handler{Store: store, Coordinator: coordinator}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/workorders":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleListWorkOrders(w, r)
	case strings.HasPrefix(path, "/operations/"):
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		id := strings.TrimPrefix(path, "/operations/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		h.handleUpdateOperation(w, r, id)
	case path == "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	var payloads []WorkOrderPayload
	err := h.Store.View(r.Context(), func(v domain.View) error {
		payloads = WorkOrderPayloads(v.ListWorkOrders())
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list work orders failed")
		return
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (h *Handler) handleUpdateOperation(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Strict format validation happens before any store access.
	start, err := core.ParseWireTime(req.Start)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := core.ParseWireTime(req.End)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	committed, err := h.Coordinator.UpdateOperation(r.Context(), id, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{
		Message: fmt.Sprintf("Operation %s updated successfully.", committed.ID),
		Data: UpdateData{
			ID:    committed.ID,
			Start: core.FormatWireTime(committed.Start),
			End:   core.FormatWireTime(committed.End),
		},
	})
}

// writeDomainError maps the closed error taxonomy onto the wire, verbatim:
// no kind is ever downgraded into another.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		malformed domain.MalformedInputError
		notFound  domain.NotFoundError
		violation domain.RuleViolationError
		conflict  domain.ConflictError
	)
	switch {
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadRequest, malformed.Message)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &violation):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorBody{
			Rule:    violation.Violation.Rule,
			Message: violation.Violation.Message,
		}})
	case errors.As(err, &conflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, conflict.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Message: message}})
}
