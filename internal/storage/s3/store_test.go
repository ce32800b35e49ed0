package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/datapilot/datapilot/internal/storage"
)

type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: map[string][]byte{}}
}

func (f *fakeClient) Put(_ context.Context, _, key string, reader io.Reader, _ int64, _ string) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeClient) Get(_ context.Context, _, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeClient) List(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	infos := make([]storage.ObjectInfo, 0)
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (f *fakeClient) Delete(_ context.Context, _, key string) error {
	if _, ok := f.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeClient) BucketExists(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakeClient) CreateBucket(_ context.Context, _, _ string) error { return nil }

func TestPutAndGetRoundTrip(t *testing.T) {
	store, err := NewWithClient("bucket", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	body := []byte("hello")
	if _, err := store.Put(context.Background(), "datasets/demo/manifest.json", bytes.NewReader(body), int64(len(body)), storage.PutOptions{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reader, err := store.Get(context.Background(), "datasets/demo/manifest.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = reader.Close() }()
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("body = %q", got)
	}
}

func TestListStripsStorePrefixAndSorts(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("bucket", "root", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	for _, key := range []string{"datasets/demo/orders/2.parquet", "datasets/demo/orders/1.parquet"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, storage.PutOptions{}); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	objects, err := store.List(context.Background(), "datasets/demo/orders")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("len(objects) = %d", len(objects))
	}
	if objects[0].Key != "datasets/demo/orders/1.parquet" {
		t.Fatalf("objects[0].Key = %q", objects[0].Key)
	}
	if objects[1].Key != "datasets/demo/orders/2.parquet" {
		t.Fatalf("objects[1].Key = %q", objects[1].Key)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	store, err := NewWithClient("bucket", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	if _, err := store.Get(context.Background(), "missing"); err != storage.ErrObjectNotFound {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestNormalizeKeyRejectsTraversal(t *testing.T) {
	store, err := NewWithClient("bucket", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	if _, err := store.Get(context.Background(), "../secrets"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Get(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty key")
	}
}
