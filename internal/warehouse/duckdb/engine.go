// Package duckdb runs warehouse queries on an in-process DuckDB instance.
// Parquet files are staged from the object store into a temp dir and exposed
// as one view per table, so generated SQL can reference catalog table names
// directly.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/datapilot/datapilot/internal/catalog"
	"github.com/datapilot/datapilot/internal/storage"
	"github.com/datapilot/datapilot/internal/warehouse"
)

type Engine struct {
	store storage.ObjectStore
}

func NewEngine(store storage.ObjectStore) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Execute(ctx context.Context, request warehouse.Request) (warehouse.Result, error) {
	if strings.TrimSpace(request.SQL) == "" {
		return warehouse.Result{}, fmt.Errorf("sql is required")
	}
	if e.store == nil {
		return warehouse.Result{}, fmt.Errorf("object store is required")
	}

	if request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, request.Timeout)
		defer cancel()
	}

	start := time.Now()
	workDir, err := os.MkdirTemp("", "datapilot-query-")
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("create query temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	staged, err := e.stageTables(ctx, workDir, request.Tables)
	if err != nil {
		return warehouse.Result{}, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	for tableName, localPaths := range staged {
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`,
			quoteIdent(tableName), quoteStringArray(localPaths))
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return warehouse.Result{}, fmt.Errorf("create view for table %q: %w", tableName, err)
		}
	}

	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return warehouse.Result{}, fmt.Errorf("sql is required")
	}
	// Fetch one row past the cap so truncation is detectable.
	if request.MaxRows > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, request.MaxRows+1)
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return warehouse.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return warehouse.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	truncated := false
	if request.MaxRows > 0 && len(resultRows) > request.MaxRows {
		resultRows = resultRows[:request.MaxRows]
		truncated = true
	}

	return warehouse.Result{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

// stageTables downloads each table's parquet files and returns local paths
// grouped by table name. Tables without files are skipped; a query that
// references one fails in DuckDB with an unknown-table error.
func (e *Engine) stageTables(ctx context.Context, workDir string, tables []catalog.Table) (map[string][]string, error) {
	staged := map[string][]string{}
	for _, table := range tables {
		for index, objectKey := range table.Files {
			reader, err := e.store.Get(ctx, objectKey)
			if err != nil {
				return nil, fmt.Errorf("get object %q: %w", objectKey, err)
			}

			localPath := filepath.Join(workDir, fmt.Sprintf("%s_%d.parquet", sanitizeFileComponent(table.Name), index))
			if err := writeFile(localPath, reader); err != nil {
				_ = reader.Close()
				return nil, fmt.Errorf("write local parquet file %q: %w", localPath, err)
			}
			if err := reader.Close(); err != nil {
				return nil, fmt.Errorf("close object %q: %w", objectKey, err)
			}
			staged[table.Name] = append(staged[table.Name], localPath)
		}
	}
	return staged, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, `'`+strings.ReplaceAll(value, `'`, `''`)+`'`)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
