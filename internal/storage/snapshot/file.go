package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores the mapping in a local JSON file. Saves go to a temp file
// in the same directory which is then renamed over the target, so a crash
// leaves either the old or the new document.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("snapshot: file path must not be empty")
	}
	return &FileBackend{path: path}, nil
}

// Path returns the target file.
func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Load(_ context.Context) (Data, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Data{}, nil
		}
		return nil, fmt.Errorf("snapshot: read %s: %w", f.path, err)
	}
	return decode(b)
}

func (f *FileBackend) Save(_ context.Context, data Data) (err error) {
	b, err := encode(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("snapshot: chmod temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}
