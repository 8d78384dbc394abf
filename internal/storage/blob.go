package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/google/uuid"
)

// ErrBlobNotFound is returned by BlobStore.Open for unknown keys.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore defines the interface for raw file and report storage.
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) (*models.BlobInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore implements BlobStore using the local filesystem.
type LocalStore struct {
	dir    string
	create func(path string) (io.WriteCloser, error)
}

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &LocalStore{dir: dir, create: createFile}, nil
}

// Save writes r under a fresh key.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (*models.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := uuid.New().String()
	path := s.path(key)

	f, err := s.create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	// Buffered write errors can surface only at close
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing file: %w", err)
	}

	return &models.BlobInfo{
		Key:      key,
		Name:     name,
		Size:     size,
		StoredAt: time.Now(),
	}, nil
}

// Open returns the content stored under key.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// Delete removes a blob. Deleting an unknown key is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// path confines keys to the store directory.
func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// ReadAll opens key and reads it fully.
func ReadAll(ctx context.Context, store BlobStore, key string) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
