// Package seed loads the embedded demo schedule into a store, mirroring the
// idempotent bootstrap the service runs at startup.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"schedcore/pkg/domain"
)

//go:embed seed_data.json
var seedData []byte

// Dataset returns the embedded work orders, operations in index order.
func Dataset() ([]domain.WorkOrder, error) {
	var orders []domain.WorkOrder
	if err := json.Unmarshal(seedData, &orders); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	return orders, nil
}

// Apply seeds the store when it is empty. A store that already holds work
// orders is left untouched, so repeated startups are safe.
func Apply(_ context.Context, store domain.Store) error {
	if len(store.ListWorkOrders()) > 0 {
		return nil
	}
	orders, err := Dataset()
	if err != nil {
		return err
	}
	snapshot := domain.Snapshot{WorkOrders: make(map[string]domain.WorkOrder, len(orders))}
	for _, wo := range orders {
		snapshot.WorkOrders[wo.ID] = wo
	}
	if err := store.ImportSnapshot(snapshot); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	return nil
}
