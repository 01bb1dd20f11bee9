package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileBlobStore stores each blob as <dir>/<key>.json.
type FileBlobStore struct {
	dir string
}

var _ BlobStore = (*FileBlobStore)(nil)

// NewFileBlobStore returns a store rooted at dir. The directory is created on
// the first write.
func NewFileBlobStore(dir string) *FileBlobStore {
	return &FileBlobStore{dir: filepath.Clean(dir)}
}

func (f *FileBlobStore) Name() string { return "file" }

// Path returns the file backing key.
func (f *FileBlobStore) Path(key string) string {
	// Keys are flattened so they cannot escape dir.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}

func (f *FileBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob file: %w", err)
	}
	return data, nil
}

// Set writes value atomically: to a temp file in dir, then renamed over the
// target.
func (f *FileBlobStore) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	temp, err := os.CreateTemp(f.dir, ".airdate.json.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(value); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, f.Path(key)); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (f *FileBlobStore) Remove(_ context.Context, key string) error {
	err := os.Remove(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("removing blob file: %w", err)
	}
	return nil
}

// UpdatedAt is the modification time of the blob file.
func (f *FileBlobStore) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	info, err := os.Stat(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stating blob file: %w", err)
	}
	return info.ModTime(), nil
}
