package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/datapilot/datapilot/internal/storage"
)

// ManifestSource loads dataset descriptors from an object store. A dataset
// lives under datasets/<id>/ with a manifest.json describing its tables and
// one directory of parquet files per table.
type ManifestSource struct {
	store storage.ObjectStore
}

func NewManifestSource(store storage.ObjectStore) *ManifestSource {
	return &ManifestSource{store: store}
}

// DatasetPrefix returns the object-store prefix holding a dataset's files.
func DatasetPrefix(datasetID string) string {
	return path.Join("datasets", datasetID)
}

// ManifestKey returns the object-store key of a dataset's manifest.
func ManifestKey(datasetID string) string {
	return path.Join(DatasetPrefix(datasetID), "manifest.json")
}

// TablePrefix returns the object-store prefix holding a table's parquet
// files.
func TablePrefix(datasetID, tableName string) string {
	return path.Join(DatasetPrefix(datasetID), "tables", tableName)
}

func (m *ManifestSource) Dataset(ctx context.Context, datasetID string) (Dataset, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return Dataset{}, fmt.Errorf("dataset id is required")
	}

	reader, err := m.store.Get(ctx, ManifestKey(datasetID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return Dataset{}, ErrDatasetNotFound
		}
		return Dataset{}, fmt.Errorf("load manifest for dataset %q: %w", datasetID, err)
	}
	defer func() { _ = reader.Close() }()

	var dataset Dataset
	if err := json.NewDecoder(reader).Decode(&dataset); err != nil {
		return Dataset{}, fmt.Errorf("decode manifest for dataset %q: %w", datasetID, err)
	}
	dataset.ID = datasetID
	if err := validateDataset(dataset); err != nil {
		return Dataset{}, fmt.Errorf("manifest for dataset %q: %w", datasetID, err)
	}

	for i := range dataset.Tables {
		if len(dataset.Tables[i].Files) > 0 {
			continue
		}
		files, err := m.listTableFiles(ctx, datasetID, dataset.Tables[i].Name)
		if err != nil {
			return Dataset{}, err
		}
		dataset.Tables[i].Files = files
	}
	return dataset, nil
}

func (m *ManifestSource) listTableFiles(ctx context.Context, datasetID, tableName string) ([]string, error) {
	objects, err := m.store.List(ctx, TablePrefix(datasetID, tableName))
	if err != nil {
		return nil, fmt.Errorf("list files for table %q: %w", tableName, err)
	}
	files := make([]string, 0, len(objects))
	for _, object := range objects {
		if strings.HasSuffix(object.Key, ".parquet") {
			files = append(files, object.Key)
		}
	}
	return files, nil
}

func validateDataset(dataset Dataset) error {
	if len(dataset.Tables) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(dataset.Tables))
	for _, table := range dataset.Tables {
		if strings.TrimSpace(table.Name) == "" {
			return fmt.Errorf("table with empty name")
		}
		if _, dup := seen[table.Name]; dup {
			return fmt.Errorf("duplicate table %q", table.Name)
		}
		seen[table.Name] = struct{}{}
		if len(table.Columns) == 0 {
			return fmt.Errorf("table %q has no columns", table.Name)
		}
	}
	for _, table := range dataset.Tables {
		for _, fk := range table.ForeignKeys {
			if _, ok := seen[fk.ReferencedTable]; !ok {
				return fmt.Errorf("table %q references unknown table %q", table.Name, fk.ReferencedTable)
			}
		}
	}
	return nil
}
