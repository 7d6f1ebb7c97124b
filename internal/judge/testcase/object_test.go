package testcase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/harsh-s15/iitj-coder/internal/common/storage"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

// memStorage is an in-memory ObjectStorage. Missing keys surface on read,
// the way the MinIO client reports them.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return io.NopCloser(&errReader{err: fmt.Errorf("get %s: %w", key, storage.ErrObjectNotFound)}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStorage) RemoveObjects(ctx context.Context, bucket string, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

func (m *memStorage) StatObject(ctx context.Context, bucket, key string) (storage.ObjectStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return storage.ObjectStat{}, storage.ErrObjectNotFound
	}
	return storage.ObjectStat{SizeBytes: int64(len(data))}, nil
}

type errReader struct {
	err error
}

func (r *errReader) Read(p []byte) (int, error) { return 0, r.err }

// downStorage fails every read as an unreachable backend would.
type downStorage struct {
	memStorage
}

func (d *downStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("dial tcp 127.0.0.1:9000: connection refused")
}

func TestObjectStoreRoundTrip(t *testing.T) {
	backend := newMemStorage()
	store, err := NewObjectStore(backend, "judge", "cases")
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	ctx := context.Background()

	cases := []Case{
		{Input: "1 2", Expected: "3"},
		{Input: "4 5", Expected: "9"},
	}
	if err := store.Replace(ctx, "q1", cases); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := store.List(ctx, "q1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d cases, want 2", len(got))
	}
	if got[0].Index != 1 || got[0].Input != "1 2" || got[0].Expected != "3" {
		t.Fatalf("case 1 = %+v", got[0])
	}
	if got[1].Index != 2 || got[1].Expected != "9" {
		t.Fatalf("case 2 = %+v", got[1])
	}
}

func TestObjectStoreReplaceRemovesStale(t *testing.T) {
	backend := newMemStorage()
	store, err := NewObjectStore(backend, "judge", "")
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	ctx := context.Background()

	first := []Case{{Input: "a", Expected: "A"}, {Input: "b", Expected: "B"}, {Input: "c", Expected: "C"}}
	if err := store.Replace(ctx, "q1", first); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	second := []Case{{Input: "x", Expected: "X"}}
	if err := store.Replace(ctx, "q1", second); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := store.List(ctx, "q1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Input != "x" {
		t.Fatalf("got %+v, want the replaced set only", got)
	}
	keys, _ := backend.ListObjects(ctx, "judge", "q1/")
	if len(keys) != 3 {
		t.Fatalf("backend holds %d objects, want manifest plus one pair: %v", len(keys), keys)
	}
}

func TestObjectStoreListUnknownQuestion(t *testing.T) {
	store, err := NewObjectStore(newMemStorage(), "judge", "")
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}

	_, err = store.List(context.Background(), "nope")
	if appErr.GetCode(err) != appErr.TestCaseNotFound {
		t.Fatalf("code = %v, want TestCaseNotFound", appErr.GetCode(err))
	}
}

// A backend outage must not be mistaken for a question without hidden
// cases; that distinction keeps a submission from being graded on the
// visible set alone.
func TestObjectStoreListBackendDown(t *testing.T) {
	store, err := NewObjectStore(&downStorage{}, "judge", "")
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}

	_, err = store.List(context.Background(), "q1")
	if err == nil {
		t.Fatal("expected error")
	}
	if code := appErr.GetCode(err); code == appErr.TestCaseNotFound {
		t.Fatalf("outage classified as TestCaseNotFound")
	}
}
