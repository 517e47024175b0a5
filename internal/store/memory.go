package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps payloads in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryBackend constructs an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string][]byte)}
}

// Load returns a copy of the stored payload.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	payload, ok := b.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Save replaces the payload stored under key.
func (b *MemoryBackend) Save(_ context.Context, key string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)
	b.mu.Lock()
	b.items[key] = stored
	b.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are ignored.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
	return nil
}
