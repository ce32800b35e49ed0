// Package seeder writes a deterministic demo e-commerce dataset to the
// object store: one parquet file per table plus a manifest the catalog can
// resolve. It exists so a fresh deployment has something to ask questions
// about.
package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/parquet-go/parquet-go"

	"github.com/datapilot/datapilot/internal/catalog"
	"github.com/datapilot/datapilot/internal/storage"
)

type Seeder struct {
	cfg   Config
	store storage.ObjectStore
	log   *slog.Logger
}

type Summary struct {
	DatasetID string
	RowCounts map[string]int
}

func New(cfg Config, store storage.ObjectStore, logger *slog.Logger) (*Seeder, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Seeder{cfg: cfg, store: store, log: logger}, nil
}

// Seed generates the rows, uploads one parquet file per table and finally
// the manifest. The manifest goes last so the dataset never resolves before
// its data files exist.
func (s *Seeder) Seed(ctx context.Context) (Summary, error) {
	rows := newGenerator(s.cfg).generate()

	if err := putTable(ctx, s, "users", rows.Users); err != nil {
		return Summary{}, err
	}
	if err := putTable(ctx, s, "products", rows.Products); err != nil {
		return Summary{}, err
	}
	if err := putTable(ctx, s, "orders", rows.Orders); err != nil {
		return Summary{}, err
	}
	if err := putTable(ctx, s, "order_items", rows.OrderItems); err != nil {
		return Summary{}, err
	}
	if err := s.putManifest(ctx); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		DatasetID: s.cfg.DatasetID,
		RowCounts: map[string]int{
			"users":       len(rows.Users),
			"products":    len(rows.Products),
			"orders":      len(rows.Orders),
			"order_items": len(rows.OrderItems),
		},
	}
	s.log.InfoContext(ctx, "seeded demo dataset",
		slog.String("dataset_id", summary.DatasetID),
		slog.Int("users", summary.RowCounts["users"]),
		slog.Int("products", summary.RowCounts["products"]),
		slog.Int("orders", summary.RowCounts["orders"]),
		slog.Int("order_items", summary.RowCounts["order_items"]),
	)
	return summary, nil
}

func putTable[T any](ctx context.Context, s *Seeder, tableName string, rows []T) error {
	data, err := encodeParquet(rows)
	if err != nil {
		return fmt.Errorf("encode table %q: %w", tableName, err)
	}
	key := path.Join(catalog.TablePrefix(s.cfg.DatasetID, tableName), "part-000000.parquet")
	opts := storage.PutOptions{ContentType: "application/octet-stream"}
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload table %q: %w", tableName, err)
	}
	return nil
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("rows are required")
	}
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Seeder) putManifest(ctx context.Context) error {
	manifest := demoDataset(s.cfg.DatasetID)
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	key := catalog.ManifestKey(s.cfg.DatasetID)
	opts := storage.PutOptions{ContentType: "application/json"}
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}
	return nil
}

func demoDataset(datasetID string) catalog.Dataset {
	return catalog.Dataset{
		ID:   datasetID,
		Name: "TheLook demo e-commerce",
		Tables: []catalog.Table{
			{
				Name:        "users",
				Description: "Registered customers.",
				Columns: []catalog.Column{
					{Name: "id", Type: "BIGINT", Description: "Primary key."},
					{Name: "first_name", Type: "VARCHAR"},
					{Name: "last_name", Type: "VARCHAR"},
					{Name: "email", Type: "VARCHAR"},
					{Name: "age", Type: "INTEGER"},
					{Name: "country", Type: "VARCHAR", Description: "ISO country code."},
					{Name: "traffic_source", Type: "VARCHAR", Description: "Acquisition channel."},
					{Name: "created_at_unix_ms", Type: "BIGINT", Description: "Signup time, unix milliseconds."},
					{Name: "lifetime_value", Type: "DOUBLE"},
				},
			},
			{
				Name:        "products",
				Description: "Product catalog.",
				Columns: []catalog.Column{
					{Name: "id", Type: "BIGINT", Description: "Primary key."},
					{Name: "name", Type: "VARCHAR"},
					{Name: "category", Type: "VARCHAR"},
					{Name: "brand", Type: "VARCHAR"},
					{Name: "department", Type: "VARCHAR"},
					{Name: "cost", Type: "DOUBLE"},
					{Name: "retail_price", Type: "DOUBLE"},
				},
			},
			{
				Name:        "orders",
				Description: "Customer orders, one row per order.",
				Columns: []catalog.Column{
					{Name: "id", Type: "BIGINT", Description: "Primary key."},
					{Name: "user_id", Type: "BIGINT"},
					{Name: "status", Type: "VARCHAR", Description: "Complete, Shipped, Processing, Cancelled or Returned."},
					{Name: "num_items", Type: "INTEGER"},
					{Name: "created_at_unix_ms", Type: "BIGINT", Description: "Order time, unix milliseconds."},
					{Name: "shipped_at_unix_ms", Type: "BIGINT", Description: "Ship time, unix milliseconds; 0 when not shipped."},
				},
				ForeignKeys: []catalog.ForeignKey{
					{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
				},
			},
			{
				Name:        "order_items",
				Description: "Line items, one row per product in an order.",
				Columns: []catalog.Column{
					{Name: "id", Type: "BIGINT", Description: "Primary key."},
					{Name: "order_id", Type: "BIGINT"},
					{Name: "user_id", Type: "BIGINT"},
					{Name: "product_id", Type: "BIGINT"},
					{Name: "status", Type: "VARCHAR"},
					{Name: "sale_price", Type: "DOUBLE"},
					{Name: "created_at_unix_ms", Type: "BIGINT"},
				},
				ForeignKeys: []catalog.ForeignKey{
					{Column: "order_id", ReferencedTable: "orders", ReferencedColumn: "id"},
					{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
					{Column: "product_id", ReferencedTable: "products", ReferencedColumn: "id"},
				},
			},
		},
	}
}
