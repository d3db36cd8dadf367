package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. It is the default backend and the one tests use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		observe("memory", "get", start, ErrNotFound)
		return nil, ErrNotFound
	}
	observe("memory", "get", start, nil)
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()

	observe("memory", "put", start, nil)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	observe("memory", "delete", start, nil)
	return nil
}

// Keys returns the stored keys, mainly for tests
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func (m *Memory) Close() error {
	return nil
}
