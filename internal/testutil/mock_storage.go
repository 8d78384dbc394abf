// mock_storage.go - In-memory storage implementations for testing
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/equipment-visualizer/backend/internal/storage"
)

// MockBlobStore implements storage.BlobStore in memory
type MockBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// SaveErr, when set, is returned by Save
	SaveErr error
}

// NewMockBlobStore creates an empty blob store
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Save(ctx context.Context, name string, r io.Reader) (*models.BlobInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := generateTestID()
	m.blobs[key] = data
	return &models.BlobInfo{Key: key, Name: name, Size: int64(len(data)), StoredAt: time.Now()}, nil
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrBlobNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Has reports whether key is stored
func (m *MockBlobStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok
}

// Count returns the number of stored blobs
func (m *MockBlobStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

var _ storage.BlobStore = (*MockBlobStore)(nil)

// MockRepository implements storage.Repository in memory with the same
// ordering and retention rules as the DuckDB repository
type MockRepository struct {
	mu       sync.Mutex
	datasets map[string]*models.Dataset
	seq      map[string]int
	next     int
	limits   map[string]int

	// CreateErr, when set, is returned by Create
	CreateErr error
}

// NewMockRepository creates an empty repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		datasets: make(map[string]*models.Dataset),
		seq:      make(map[string]int),
		limits:   make(map[string]int),
	}
}

func (m *MockRepository) Create(ctx context.Context, ds *models.Dataset, limit int) ([]*models.Dataset, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if limit < 1 {
		return nil, fmt.Errorf("invalid retention limit %d", limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ds
	m.datasets[ds.ID] = &cp
	m.next++
	m.seq[ds.ID] = m.next

	owned := m.ownedLocked(ds.Owner)
	var evicted []*models.Dataset
	for _, old := range owned[min(limit, len(owned)):] {
		evicted = append(evicted, old)
		delete(m.datasets, old.ID)
		delete(m.seq, old.ID)
	}
	return evicted, nil
}

// ownedLocked returns copies of owner's datasets newest first.
func (m *MockRepository) ownedLocked(owner string) []*models.Dataset {
	var out []*models.Dataset
	for _, ds := range m.datasets {
		if ds.Owner == owner {
			cp := *ds
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	return out
}

func (m *MockRepository) Count(ctx context.Context, owner string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ownedLocked(owner)), nil
}

func (m *MockRepository) List(ctx context.Context, owner string, limit int) ([]*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.ownedLocked(owner)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*models.Dataset{}
	}
	return out, nil
}

func (m *MockRepository) Get(ctx context.Context, id, owner string) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok || ds.Owner != owner {
		return nil, &models.NotFoundError{Resource: "dataset", ID: id}
	}
	cp := *ds
	return &cp, nil
}

func (m *MockRepository) Delete(ctx context.Context, id, owner string) (*models.Dataset, error) {
	ds, err := m.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, id)
	delete(m.seq, id)
	return ds, nil
}

func (m *MockRepository) Latest(ctx context.Context, owner string) (*models.Dataset, error) {
	list, _ := m.List(ctx, owner, 1)
	if len(list) == 0 {
		return nil, &models.NotFoundError{Resource: "dataset", ID: "latest"}
	}
	return list[0], nil
}

func (m *MockRepository) SetReport(ctx context.Context, id, key string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok {
		return "", &models.NotFoundError{Resource: "dataset", ID: id}
	}
	prev := ds.ReportKey
	ds.ReportKey = key
	ds.ReportAt = &at
	return prev, nil
}

func (m *MockRepository) OwnerLimit(ctx context.Context, owner string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit, ok := m.limits[owner]
	return limit, ok, nil
}

func (m *MockRepository) SetOwnerLimit(ctx context.Context, owner string, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[owner] = limit
	return nil
}

func (m *MockRepository) Close() error { return nil }

// AddDataset inserts a record directly, bypassing retention
func (m *MockRepository) AddDataset(ds *models.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ds
	m.datasets[ds.ID] = &cp
	m.next++
	m.seq[ds.ID] = m.next
}

var _ storage.Repository = (*MockRepository)(nil)

// ErrInjected is a generic failure for error-path tests
var ErrInjected = errors.New("injected failure")

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
