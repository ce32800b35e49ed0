// Package warehouse executes validated read-only SQL against a dataset's
// parquet files.
package warehouse

import (
	"context"
	"time"

	"github.com/datapilot/datapilot/internal/catalog"
)

type Request struct {
	SQL string
	// Tables are the catalog tables staged for the query, each carrying the
	// object-store keys of its parquet files.
	Tables []catalog.Table
	// Timeout bounds execution. Zero means no bound beyond the caller's
	// context.
	Timeout time.Duration
	// MaxRows caps the result set. When the query would produce more rows,
	// the result is cut at MaxRows and Truncated is set.
	MaxRows int
}

type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
