// blob_test.go - Tests for the filesystem blob store
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates blob directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "blobs", "raw")

		if _, err := NewLocalStore(dir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Error("Expected blob directory to be created")
		}
	})
}

func TestLocalStore_SaveOpen(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	content := "Equipment Name,Type\nP1,Pump\n"

	info, err := store.Save(ctx, "equipment.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Failed to save blob: %v", err)
	}
	if info.Key == "" {
		t.Error("Expected key to be set")
	}
	if info.Name != "equipment.csv" {
		t.Errorf("Expected name 'equipment.csv', got %v", info.Name)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), info.Size)
	}

	data, err := ReadAll(ctx, store, info.Key)
	if err != nil {
		t.Fatalf("Failed to read blob: %v", err)
	}
	if string(data) != content {
		t.Errorf("Expected content %q, got %q", content, string(data))
	}
}

func TestLocalStore_UniqueKeys(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	a, _ := store.Save(ctx, "same.csv", strings.NewReader("a"))
	b, _ := store.Save(ctx, "same.csv", strings.NewReader("b"))
	if a.Key == b.Key {
		t.Error("Expected distinct keys for repeated names")
	}
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	info, err := store.Save(ctx, "gone.csv", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Failed to save blob: %v", err)
	}

	if err := store.Delete(ctx, info.Key); err != nil {
		t.Fatalf("Failed to delete blob: %v", err)
	}
	if _, err := store.Open(ctx, info.Key); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Expected ErrBlobNotFound after delete, got %v", err)
	}

	t.Run("unknown key is not an error", func(t *testing.T) {
		if err := store.Delete(ctx, "does-not-exist"); err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	})
}

func TestLocalStore_KeyStaysInDirectory(t *testing.T) {
	store := createTestStore(t)

	got := store.path("../../etc/passwd")
	if filepath.Dir(got) != store.dir {
		t.Errorf("Expected path inside %s, got %s", store.dir, got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.csv":  "text/csv",
		"A.CSV":  "text/csv",
		"r.pdf":  "application/pdf",
		"no-ext": "application/octet-stream",
		"x.jpeg": "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}

// closeFailFile writes to a real file but reports an error on close, the
// way a full disk surfaces a deferred write failure.
type closeFailFile struct {
	*os.File
}

func (f closeFailFile) Close() error {
	f.File.Close()
	return errors.New("no space left on device")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalStore_SaveFailuresLeaveNoFile(t *testing.T) {
	tests := []struct {
		name    string
		create  func(path string) (io.WriteCloser, error)
		content io.Reader
	}{
		{
			name: "close error",
			create: func(path string) (io.WriteCloser, error) {
				f, err := os.Create(path)
				if err != nil {
					return nil, err
				}
				return closeFailFile{f}, nil
			},
			content: strings.NewReader("Equipment Name,Type\nP1,Pump\n"),
		},
		{
			name:    "read error",
			create:  createFile,
			content: failingReader{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStore(t)
			store.create = tt.create

			info, err := store.Save(context.Background(), "equipment.csv", tt.content)
			if err == nil {
				t.Fatalf("Expected save to fail, got %+v", info)
			}

			entries, err := os.ReadDir(store.dir)
			if err != nil {
				t.Fatalf("Failed to read blob directory: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("Expected no files after failed save, found %d", len(entries))
			}
		})
	}
}
