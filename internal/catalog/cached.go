package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SchemaCache persists serialized dataset descriptors so warm requests skip
// the object-store round trip.
type SchemaCache interface {
	GetSchemaCache(ctx context.Context, datasetID string) (payload []byte, storedAt time.Time, err error)
	PutSchemaCache(ctx context.Context, datasetID string, payload []byte) error
}

// CachedSource wraps a Source with a TTL-bounded schema cache. Cache failures
// are logged and the underlying source is consulted instead; the cache is an
// optimization, never a correctness dependency.
type CachedSource struct {
	source Source
	cache  SchemaCache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewCachedSource(source Source, cache SchemaCache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{source: source, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedSource) Dataset(ctx context.Context, datasetID string) (Dataset, error) {
	if payload, storedAt, err := c.cache.GetSchemaCache(ctx, datasetID); err == nil {
		if c.ttl <= 0 || c.now().Sub(storedAt) < c.ttl {
			var dataset Dataset
			if err := json.Unmarshal(payload, &dataset); err == nil {
				return dataset, nil
			}
			c.logger.Warn("discarding unreadable schema cache entry", "dataset_id", datasetID)
		}
	}

	dataset, err := c.source.Dataset(ctx, datasetID)
	if err != nil {
		return Dataset{}, err
	}

	payload, err := json.Marshal(dataset)
	if err != nil {
		return Dataset{}, fmt.Errorf("encode dataset %q for cache: %w", datasetID, err)
	}
	if err := c.cache.PutSchemaCache(ctx, datasetID, payload); err != nil {
		c.logger.Warn("schema cache write failed", "dataset_id", datasetID, "error", err)
	}
	return dataset, nil
}
