package duckdb

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/datapilot/datapilot/internal/catalog"
	"github.com/datapilot/datapilot/internal/storage"
	"github.com/datapilot/datapilot/internal/warehouse"
)

type orderRow struct {
	ID     int64  `parquet:"id"`
	Status string `parquet:"status"`
}

func ordersTable(t *testing.T, store *memoryStore, rows []orderRow) catalog.Table {
	t.Helper()
	parquetBytes, err := buildParquet(rows)
	if err != nil {
		t.Fatalf("buildParquet() error = %v", err)
	}
	key := "datasets/demo/tables/orders/part-0.parquet"
	store.objects[key] = parquetBytes
	return catalog.Table{Name: "orders", Files: []string{key}}
}

func TestExecuteReadsParquetThroughObjectStore(t *testing.T) {
	store := newMemoryStore()
	table := ordersTable(t, store, []orderRow{{ID: 1, Status: "shipped"}, {ID: 2, Status: "returned"}})
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), warehouse.Request{
		SQL:    "SELECT COUNT(*) AS c FROM orders",
		Tables: []catalog.Table{table},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != int64(2) {
		t.Fatalf("count = %#v", result.Rows[0][0])
	}
	if result.Truncated {
		t.Fatal("Truncated should be false")
	}
}

func TestExecuteTruncatesAtMaxRows(t *testing.T) {
	store := newMemoryStore()
	table := ordersTable(t, store, []orderRow{
		{ID: 1, Status: "a"}, {ID: 2, Status: "b"}, {ID: 3, Status: "c"},
	})
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), warehouse.Request{
		SQL:     "SELECT id FROM orders ORDER BY id",
		Tables:  []catalog.Table{table},
		MaxRows: 2,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if !result.Truncated {
		t.Fatal("Truncated should be true")
	}
}

func TestExecuteSupportsTrailingSemicolonWithMaxRows(t *testing.T) {
	store := newMemoryStore()
	table := ordersTable(t, store, []orderRow{{ID: 1, Status: "a"}, {ID: 2, Status: "b"}})
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), warehouse.Request{
		SQL:     "SELECT COUNT(*) AS c FROM orders;",
		Tables:  []catalog.Table{table},
		MaxRows: 1000,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != int64(2) {
		t.Fatalf("count = %#v", result.Rows[0][0])
	}
}

func TestExecuteUnknownTableFails(t *testing.T) {
	store := newMemoryStore()
	table := ordersTable(t, store, []orderRow{{ID: 1, Status: "a"}})
	engine := NewEngine(store)

	_, err := engine.Execute(context.Background(), warehouse.Request{
		SQL:    "SELECT * FROM shipments",
		Tables: []catalog.Table{table},
	})
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func buildParquet(rows []orderRow) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[orderRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Put(context.Context, string, io.Reader, int64, storage.PutOptions) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (m *memoryStore) Delete(context.Context, string) error {
	return nil
}
