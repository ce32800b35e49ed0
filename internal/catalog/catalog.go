// Package catalog describes the datasets the agent can query: their tables,
// columns, foreign keys and backing parquet objects. Sources resolve a
// dataset ID to its descriptor; the selector narrows a dataset down to the
// tables relevant to one question.
package catalog

import (
	"context"
	"errors"
)

var ErrDatasetNotFound = errors.New("catalog: dataset not found")

type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type ForeignKey struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

type Table struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	// Files holds the object-store keys of the parquet files backing the
	// table, sorted lexicographically.
	Files []string `json:"files,omitempty"`
}

type Dataset struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Tables []Table `json:"tables"`
}

// Source resolves dataset descriptors. Implementations must return tables in
// a stable order; selection tie-breaking depends on it.
type Source interface {
	Dataset(ctx context.Context, datasetID string) (Dataset, error)
}

// Table returns the named table and whether it exists.
func (d Dataset) Table(name string) (Table, bool) {
	for _, table := range d.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}
