package persist

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryBlobStore keeps blobs in a map. It backs tests and ephemeral runs.
type MemoryBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	written map[string]time.Time
	now     func() time.Time
}

var _ BlobStore = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore returns an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs:   make(map[string][]byte),
		written: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryBlobStore) Name() string { return "memory" }

func (m *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryBlobStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = slices.Clone(value)
	m.written[key] = m.now()
	return nil
}

func (m *MemoryBlobStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	delete(m.written, key)
	return nil
}

func (m *MemoryBlobStore) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.written[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return ts, nil
}
