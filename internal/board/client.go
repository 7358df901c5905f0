package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"schedcore/internal/core"
	"schedcore/internal/httpapi"
	"schedcore/pkg/domain"
)

// Client talks to a schedcore server and maps wire envelopes back onto the
// closed domain error taxonomy, so callers never inspect ad-hoc payloads.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	return &Client{base: u, http: &http.Client{Timeout: 15 * time.Second}}, nil
}

// WorkOrders fetches the full schedule.
func (c *Client) WorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/workorders"), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return nil, decodeWireError(res, "")
	}
	var payloads []httpapi.WorkOrderPayload
	if err := json.NewDecoder(res.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode work orders: %w", err)
	}
	orders := make([]domain.WorkOrder, 0, len(payloads))
	for _, p := range payloads {
		wo := domain.WorkOrder{ID: p.ID, Product: p.Product, Qty: p.Qty}
		for _, opPayload := range p.Operations {
			op, err := opPayload.Operation()
			if err != nil {
				return nil, fmt.Errorf("work order %s: %w", p.ID, err)
			}
			wo.Operations = append(wo.Operations, op)
		}
		orders = append(orders, wo)
	}
	return orders, nil
}

// UpdateOperation submits a proposed interval and returns the committed
// canonical record.
func (c *Client) UpdateOperation(ctx context.Context, id string, start, end time.Time) (domain.Operation, error) {
	body, err := json.Marshal(httpapi.UpdateRequest{
		Start: core.FormatWireTime(start),
		End:   core.FormatWireTime(end),
	})
	if err != nil {
		return domain.Operation{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint("/operations/"+url.PathEscape(id)), bytes.NewReader(body))
	if err != nil {
		return domain.Operation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return domain.Operation{}, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return domain.Operation{}, decodeWireError(res, id)
	}
	var resp httpapi.UpdateResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return domain.Operation{}, fmt.Errorf("decode update response: %w", err)
	}
	committedStart, err := core.ParseWireTime(resp.Data.Start)
	if err != nil {
		return domain.Operation{}, err
	}
	committedEnd, err := core.ParseWireTime(resp.Data.End)
	if err != nil {
		return domain.Operation{}, err
	}
	return domain.Operation{ID: resp.Data.ID, Start: committedStart, End: committedEnd}, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = path
	return u.String()
}

func decodeWireError(res *http.Response, operationID string) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	var envelope httpapi.ErrorResponse
	message := fmt.Sprintf("server returned %d", res.StatusCode)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if envelope.Error.Rule != "" {
		return domain.RuleViolationError{Violation: domain.Violation{
			Rule:    envelope.Error.Rule,
			Message: message,
		}}
	}
	switch res.StatusCode {
	case http.StatusBadRequest:
		return domain.MalformedInputError{Message: message}
	case http.StatusNotFound:
		return domain.NotFoundError{ID: operationID}
	case http.StatusServiceUnavailable:
		return domain.ConflictError{}
	default:
		return fmt.Errorf("%s", message)
	}
}
