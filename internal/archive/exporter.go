// Package archive writes point-in-time schedule exports to blob storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schedcore/internal/blob"
	"schedcore/internal/core"
	"schedcore/internal/httpapi"
	"schedcore/pkg/domain"
)

const keyPrefix = "exports/"

// Document is the serialized export payload. Timestamps use the wire format
// so an export can be diffed against API responses directly.
type Document struct {
	GeneratedAt string                     `json:"generated_at"`
	WorkOrders  []httpapi.WorkOrderPayload `json:"work_orders"`
}

// Exporter snapshots the schedule into a uniquely keyed blob.
type Exporter struct {
	store domain.Store
	blobs blob.Store
	nowFn func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the export timestamp source.
func WithClock(nowFn func() time.Time) Option {
	return func(e *Exporter) { e.nowFn = nowFn }
}

// NewExporter wires an exporter over the schedule store and a blob backend.
func NewExporter(store domain.Store, blobs blob.Store, opts ...Option) *Exporter {
	e := &Exporter{store: store, blobs: blobs, nowFn: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export serializes the current schedule and writes it under a fresh key.
// The uuid suffix keeps concurrent exports from colliding on the create-only
// Put semantics.
func (e *Exporter) Export(ctx context.Context) (blob.Info, error) {
	now := core.NormalizeInstant(e.nowFn())
	doc := Document{
		GeneratedAt: core.FormatWireTime(now),
		WorkOrders:  httpapi.WorkOrderPayloads(e.store.ListWorkOrders()),
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode export: %w", err)
	}
	key := fmt.Sprintf("%sschedule-%s-%s.json", keyPrefix, now.Format("20060102T150405Z"), uuid.NewString())
	info, err := e.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"generated_at": doc.GeneratedAt},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("write export: %w", err)
	}
	return info, nil
}

// List returns the stored exports, oldest key first.
func (e *Exporter) List(ctx context.Context) ([]blob.Info, error) {
	return e.blobs.List(ctx, keyPrefix)
}
