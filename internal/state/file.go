package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileBackend stores each record as <dir>/<partition>/<key>.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir. The directory is created lazily.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (f *FileBackend) path(partition, key string) string {
	return filepath.Join(f.dir, partition, key)
}

func (f *FileBackend) Get(_ context.Context, partition, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(partition, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w", partition, key, err)
	}
	return data, nil
}

// Put replaces the record through a temp file and rename so readers never see a
// partial write.
func (f *FileBackend) Put(_ context.Context, partition, key string, value []byte) error {
	tmp, err := f.writeTemp(partition, value)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path(partition, key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s/%s: %w", partition, key, err)
	}
	return nil
}

// Create hard-links a fully written temp file into place. link(2) fails with
// EEXIST when the target exists, which makes the create atomic.
func (f *FileBackend) Create(_ context.Context, partition, key string, value []byte) error {
	tmp, err := f.writeTemp(partition, value)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := os.Link(tmp, f.path(partition, key)); err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return fmt.Errorf("create %s/%s: %w", partition, key, err)
	}
	return nil
}

func (f *FileBackend) Delete(_ context.Context, partition, key string) error {
	if err := os.Remove(f.path(partition, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	return nil
}

// DeleteIf renames the record aside, then verifies the content it captured. A record
// that changed in between is linked back into place unless a new one was created.
func (f *FileBackend) DeleteIf(_ context.Context, partition, key string, expected []byte) (bool, error) {
	path := f.path(partition, key)
	aside := filepath.Join(f.dir, partition, ".reclaim-"+uuid.NewString())
	if err := os.Rename(path, aside); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	defer func() { _ = os.Remove(aside) }()

	data, err := os.ReadFile(aside)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", partition, key, err)
	}
	if bytes.Equal(data, expected) {
		return true, nil
	}
	if err := os.Link(aside, path); err != nil && !errors.Is(err, os.ErrExist) {
		return false, fmt.Errorf("restore %s/%s: %w", partition, key, err)
	}
	return false, nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) writeTemp(partition string, value []byte) (string, error) {
	dir := filepath.Join(f.dir, partition)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}
