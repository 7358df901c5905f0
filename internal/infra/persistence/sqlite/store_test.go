package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"schedcore/internal/seed"
	"schedcore/pkg/domain"
)

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 15, hour, min, 0, 0, time.UTC)
}

func TestStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := seed.Apply(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.SetOperationTimes("OP-4", at(11, 0), at(12, 35))
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := len(reloaded.ListWorkOrders()); got != 3 {
		t.Fatalf("expected 3 work orders after reload, got %d", got)
	}
	op, ok := reloaded.GetOperation("OP-4")
	if !ok || !op.Start.Equal(at(11, 0)) || !op.End.Equal(at(12, 35)) {
		t.Fatalf("update not persisted: %+v", op)
	}
	if err := domain.CheckScheduleIntegrity(reloaded.ListWorkOrders()); err != nil {
		t.Fatalf("integrity after reload: %v", err)
	}
}

func TestStoreCreatesStateTable(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	var name string
	if err := store.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='state'`).Scan(&name); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if name != "state" {
		t.Fatalf("expected state table, got %s", name)
	}
}

func TestFailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := seed.Apply(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		// Breaks lane exclusivity; the commit must be refused.
		_, err := tx.SetOperationTimes("OP-6", at(10, 15), at(11, 45))
		return err
	})
	if err == nil {
		t.Fatal("integrity-breaking commit accepted")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	op, _ := reloaded.GetOperation("OP-6")
	if !op.Start.Equal(at(13, 0)) {
		t.Fatalf("rejected commit leaked to disk: %+v", op)
	}
}
