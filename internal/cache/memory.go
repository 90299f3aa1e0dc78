// Package cache provides pipeline.Cache implementations: an in-process
// map, a SQLite file shared across processes, and a no-op cache.
package cache

import (
	"context"
	"sync"

	"github.com/roach88/adminpanel/internal/config"
)

// Memory keeps resolved trees in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get implements pipeline.Cache. Each hit decodes a fresh copy.
func (m *Memory) Get(_ context.Context, fingerprint string) (*config.Tree, bool, error) {
	m.mu.RLock()
	data, ok := m.entries[fingerprint]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	tree, err := config.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

// Save implements pipeline.Cache.
func (m *Memory) Save(_ context.Context, fingerprint string, tree *config.Tree) error {
	data, err := tree.Encode()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[fingerprint] = data
	m.mu.Unlock()
	return nil
}

// Nop never stores anything.
type Nop struct{}

// Get implements pipeline.Cache.
func (Nop) Get(context.Context, string) (*config.Tree, bool, error) { return nil, false, nil }

// Save implements pipeline.Cache.
func (Nop) Save(context.Context, string, *config.Tree) error { return nil }
