// Package blobstore provides durable key-value store implementations for
// the repository's snapshot and the notes collection.
package blobstore

import (
	"sync"

	"deskos/internal/vfs"
)

// MemoryStore is an in-memory implementation of the BlobStore interface.
// Nothing survives the process; it exists for tests and throwaway sessions.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = stored
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Compile-time check that MemoryStore implements the BlobStore interface
var _ vfs.BlobStore = (*MemoryStore)(nil)
