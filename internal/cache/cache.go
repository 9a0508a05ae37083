// Package cache holds the session-scoped key/value store used to avoid
// repeating content reads within one browsing session.
//
// Entries are snapshots of the last successful read. Nothing invalidates them:
// a write made through the content client does not touch the cache, so a read
// can be stale until the session ends.
package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// HomesListKey stores the mapped list of homes.
const HomesListKey = "bellavista_homes_data"

// HomeKey is the key of a single home snapshot.
func HomeKey(id string) string {
	return "home_" + id
}

// Cache is a last-write-wins key/value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.entries[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Nop never stores anything. Every Get is a miss.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte) error { return nil }
