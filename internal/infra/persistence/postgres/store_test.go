package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"schedcore/internal/seed"
	"schedcore/pkg/domain"
)

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 15, hour, min, 0, 0, time.UTC)
}

func seedSnapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	orders, err := seed.Dataset()
	if err != nil {
		t.Fatalf("seed dataset: %v", err)
	}
	snapshot := domain.Snapshot{WorkOrders: make(map[string]domain.WorkOrder, len(orders))}
	for _, wo := range orders {
		snapshot.WorkOrders[wo.ID] = wo
	}
	return snapshot
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	conn := &stubConn{}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.OpenDB(stubConnector{conn: conn}), nil
	})
	defer restore()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	var sawDDL bool
	for _, stmt := range conn.recorded() {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
			break
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.recorded())
	}
	if got := len(store.ListWorkOrders()); got != 0 {
		t.Fatalf("expected empty store without snapshot, got %d work orders", got)
	}
}

func TestNewStoreHydratesFromSnapshot(t *testing.T) {
	payload, err := json.Marshal(seedSnapshot(t))
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	conn := &stubConn{payload: payload}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.OpenDB(stubConnector{conn: conn}), nil
	})
	defer restore()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	if got := len(store.ListWorkOrders()); got != 3 {
		t.Fatalf("expected 3 work orders from snapshot, got %d", got)
	}
	op, ok := store.GetOperation("OP-6")
	if !ok || !op.Start.Equal(at(13, 0)) {
		t.Fatalf("snapshot not hydrated: %+v ok=%v", op, ok)
	}
}

func TestRunInTransactionPersistsState(t *testing.T) {
	conn := &stubConn{}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.OpenDB(stubConnector{conn: conn}), nil
	})
	defer restore()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.ImportSnapshot(seedSnapshot(t)); err != nil {
		t.Fatalf("import: %v", err)
	}

	before := conn.upserts()
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.SetOperationTimes("OP-4", at(11, 0), at(12, 35))
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if got := conn.upserts(); got != before+1 {
		t.Fatalf("expected one snapshot upsert after commit, got %d (before %d)", got, before)
	}
	op, _ := store.GetOperation("OP-4")
	if !op.Start.Equal(at(11, 0)) {
		t.Fatalf("update not applied: %+v", op)
	}
}

// Stub database/sql driver recording statements and serving at most one
// snapshot row. Enough surface for NewStore, load, and persist.

type stubConnector struct{ conn *stubConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct {
	mu      sync.Mutex
	execs   []string
	payload []byte
}

func (c *stubConn) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

func (c *stubConn) upserts() int {
	n := 0
	for _, stmt := range c.recorded() {
		if strings.Contains(strings.ToUpper(stmt), "INSERT INTO STATE") {
			n++
		}
	}
	return n
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unsupported") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }
func (c *stubConn) Ping(context.Context) error          { return nil }

func (c *stubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	c.execs = append(c.execs, query)
	c.mu.Unlock()
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if strings.Contains(strings.ToUpper(query), "SELECT PAYLOAD") && c.payload != nil {
		return &stubRows{payload: c.payload}, nil
	}
	return &stubRows{}, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	payload []byte
	done    bool
}

func (r *stubRows) Columns() []string { return []string{"payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.done || r.payload == nil {
		return io.EOF
	}
	dest[0] = r.payload
	r.done = true
	return nil
}
