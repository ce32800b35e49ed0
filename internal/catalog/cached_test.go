package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeSource struct {
	dataset Dataset
	err     error
	calls   int
}

func (f *fakeSource) Dataset(_ context.Context, _ string) (Dataset, error) {
	f.calls++
	if f.err != nil {
		return Dataset{}, f.err
	}
	return f.dataset, nil
}

type fakeCache struct {
	payload  []byte
	storedAt time.Time
	getErr   error
	putErr   error
	puts     int
}

func (f *fakeCache) GetSchemaCache(_ context.Context, _ string) ([]byte, time.Time, error) {
	if f.getErr != nil {
		return nil, time.Time{}, f.getErr
	}
	return f.payload, f.storedAt, nil
}

func (f *fakeCache) PutSchemaCache(_ context.Context, _ string, payload []byte) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.payload = payload
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedSourceServesFreshEntry(t *testing.T) {
	payload, err := json.Marshal(shopDataset())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	source := &fakeSource{dataset: shopDataset()}
	cache := &fakeCache{payload: payload, storedAt: time.Now()}
	cached := NewCachedSource(source, cache, time.Hour, discardLogger())

	dataset, err := cached.Dataset(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(dataset.Tables) != 3 {
		t.Fatalf("len(Tables) = %d", len(dataset.Tables))
	}
	if source.calls != 0 {
		t.Fatalf("source.calls = %d, want 0", source.calls)
	}
}

func TestCachedSourceRefreshesStaleEntry(t *testing.T) {
	payload, _ := json.Marshal(Dataset{ID: "demo"})
	source := &fakeSource{dataset: shopDataset()}
	cache := &fakeCache{payload: payload, storedAt: time.Now().Add(-2 * time.Hour)}
	cached := NewCachedSource(source, cache, time.Hour, discardLogger())

	dataset, err := cached.Dataset(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(dataset.Tables) != 3 {
		t.Fatalf("len(Tables) = %d, want refreshed dataset", len(dataset.Tables))
	}
	if source.calls != 1 {
		t.Fatalf("source.calls = %d, want 1", source.calls)
	}
	if cache.puts != 1 {
		t.Fatalf("cache.puts = %d, want 1", cache.puts)
	}
}

func TestCachedSourceToleratesCacheFailures(t *testing.T) {
	source := &fakeSource{dataset: shopDataset()}
	cache := &fakeCache{getErr: errors.New("down"), putErr: errors.New("down")}
	cached := NewCachedSource(source, cache, time.Hour, discardLogger())

	dataset, err := cached.Dataset(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(dataset.Tables) != 3 {
		t.Fatalf("len(Tables) = %d", len(dataset.Tables))
	}
}

func TestCachedSourcePropagatesSourceError(t *testing.T) {
	source := &fakeSource{err: ErrDatasetNotFound}
	cache := &fakeCache{getErr: errors.New("miss")}
	cached := NewCachedSource(source, cache, time.Hour, discardLogger())

	if _, err := cached.Dataset(context.Background(), "demo"); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("Dataset() error = %v, want ErrDatasetNotFound", err)
	}
}
