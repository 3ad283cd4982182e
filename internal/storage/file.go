package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const defaultFileMode = 0o600

// FileStore keeps all keys in a single JSON document on disk.
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewFile returns a store backed by path on the OS filesystem.
func NewFile(path string) *FileStore {
	return NewFileOn(afero.NewOsFs(), path)
}

// NewFileOn returns a store backed by path on the provided filesystem.
func NewFileOn(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}

	values[key] = value
	return f.write(values)
}

func (f *FileStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	return f.write(values)
}

func (f *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("reading store file %q: %w", f.path, err)
	}

	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing store file %q: %w", f.path, err)
	}

	return values, nil
}

// write replaces the file through a temporary sibling so readers never see a
// partially written document.
func (f *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory %q: %w", dir, err)
		}
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, defaultFileMode); err != nil {
		return fmt.Errorf("writing store file %q: %w", tmp, err)
	}

	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing store file %q: %w", f.path, err)
	}

	return nil
}
