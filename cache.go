package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

// cache is one named client-local slot holding the serialized collection.
// Read reports false when nothing has been written yet.
type cache interface {
	Read(ctx context.Context) ([]byte, bool, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

type memoryCache struct {
	*sync.Mutex
	key   string
	slots map[string][]byte
}

func newMemoryCache(key string) *memoryCache {
	return &memoryCache{
		&sync.Mutex{},
		key,
		make(map[string][]byte),
	}
}

func (m *memoryCache) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.Lock()
	defer m.Unlock()

	data, ok := m.slots[m.key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), data...), true, nil
}

func (m *memoryCache) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.Lock()
	defer m.Unlock()

	m.slots[m.key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.Lock()
	defer m.Unlock()

	delete(m.slots, m.key)
	return nil
}

// fileCache keeps the slot in <dir>/<key>.json.
type fileCache struct {
	path string
}

func newFileCache(dir, key string) (*fileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &fileCache{path: filepath.Join(dir, key+".json")}, nil
}

func (f *fileCache) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	return data, true, nil
}

// Write replaces the file through a synced temp file and rename, so
// readers see either the old snapshot or the new one.
func (f *fileCache) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := renameio.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

func (f *fileCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}

	return nil
}
