// Package storage persists the session mirror between process runs.
//
// Only two keys are ever written: KeyToken holds the raw bearer token and
// KeyUser the JSON encoded user record. They are cleared together.
package storage

import (
	"context"
	stderrors "errors"
	"sync"
)

// Keys used by the session store.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = stderrors.New("storage: key not found")

// Storage is a small string key/value store.
//
// Implementations must be safe for concurrent use. Delete of a missing key
// is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// MemoryStorage keeps values in process memory. Tests and one-shot commands
// use it.
type MemoryStorage struct {
	values sync.Map
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Get returns the value stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

// Set stores value under key.
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.values.Store(key, value)
	return nil
}

// Delete removes keys.
func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.values.Delete(k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	n := 0
	m.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close is a no-op.
func (m *MemoryStorage) Close() error { return nil }
