// Package store defines the key-value configuration store shared by the relay
// and the settings editor.
package store

import (
	"context"
	"sync"
)

// Store is a last-write-wins key-value store. Get never fails for a missing
// key: it resolves to the empty string.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates a Memory store seeded with the given values
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.values[k] = v
	}
	return m
}

// Get returns a value for every requested key
func (m *Memory) Get(ctx context.Context, keys []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = m.values[k]
	}
	return out, nil
}

// Set writes all values at once
func (m *Memory) Set(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
