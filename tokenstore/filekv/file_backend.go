// Package filekv stores the session as a single JSON object file. The file is
// replaced through a temp file and rename so a crash never leaves half a
// document behind.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/spf13/afero"
)

const (
	FileName = "session.json"
	fileMode = 0o600
	dirMode  = 0o700
)

type Backend struct {
	fs   afero.Fs
	path string
	lock sync.Mutex
}

// New creates dir on fs if needed and returns a backend writing <dir>/session.json
func New(fs afero.Fs, dir string) (*Backend, error) {
	if fs == nil {
		return nil, errors.New("[filekv.New] filesystem is required")
	}
	if dir == "" {
		return nil, errors.New("[filekv.New] directory is required")
	}
	if err := fs.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("[filekv.New] fs.MkdirAll %s: %w", dir, err)
	}
	return &Backend{fs: fs, path: filepath.Join(dir, FileName)}, nil
}

// NewOS is New on the operating system filesystem
func NewOS(dir string) (*Backend, error) {
	return New(afero.NewOsFs(), dir)
}

func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	values, err := b.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	values, err := b.read()
	if err != nil {
		return err
	}
	values[key] = value
	return b.write(values)
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	values, err := b.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		if err := b.fs.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("[Backend.Delete] fs.Remove: %w: %w", apperrors.ErrStorageUnavailable, err)
		}
		return nil
	}
	return b.write(values)
}

func (b *Backend) read() (map[string]string, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Backend.read] afero.ReadFile %s: %w: %w", b.path, apperrors.ErrStorageUnavailable, err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[Backend.read] json.Unmarshal %s: %w", b.path, err)
	}
	return values, nil
}

func (b *Backend) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[Backend.write] json.Marshal: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, fileMode); err != nil {
		return fmt.Errorf("[Backend.write] afero.WriteFile %s: %w: %w", tmp, apperrors.ErrStorageUnavailable, err)
	}
	if err := b.fs.Rename(tmp, b.path); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("[Backend.write] fs.Rename: %w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}
