package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File keeps every record in one JSON document on disk, keyed by record key.
// The whole document is rewritten on each mutation through a temp file and
// rename, so a crash leaves either the old or the new version.
type File struct {
	path string

	mu      sync.RWMutex
	records map[string]json.RawMessage
}

// NewFile opens (or creates) the JSON document at path
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &File{path: path, records: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	case len(data) == 0:
		return f, nil
	}

	if err := json.Unmarshal(data, &f.records); err != nil {
		return nil, fmt.Errorf("store file %s is not a JSON object: %w", path, err)
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	v, ok := f.records[key]
	f.mu.RUnlock()

	if !ok {
		observe("file", "get", start, ErrNotFound)
		return nil, ErrNotFound
	}
	observe("file", "get", start, nil)
	return append([]byte(nil), v...), nil
}

func (f *File) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		err := wrap("put", key, errors.New("value is not valid JSON"))
		observe("file", "put", start, err)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.records[key]
	f.records[key] = append(json.RawMessage(nil), value...)
	if err := f.flush(); err != nil {
		if had {
			f.records[key] = prev
		} else {
			delete(f.records, key)
		}
		err = wrap("put", key, err)
		observe("file", "put", start, err)
		return err
	}

	observe("file", "put", start, nil)
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.records[key]
	if !had {
		observe("file", "delete", start, nil)
		return nil
	}

	delete(f.records, key)
	if err := f.flush(); err != nil {
		f.records[key] = prev
		err = wrap("delete", key, err)
		observe("file", "delete", start, err)
		return err
	}

	observe("file", "delete", start, nil)
	return nil
}

// flush must be called with mu held
func (f *File) flush() error {
	data, err := json.MarshalIndent(f.records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, f.path)
}

// Ping reports whether the store directory is still reachable
func (f *File) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

func (f *File) Close() error {
	return nil
}
