package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a Backend when no payload exists for a key.
var ErrKeyNotFound = errors.New("store: key not found")

// Backend persists opaque payloads by key. Implementations replace the whole
// payload on Save; there is no partial update.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

// Versioned is implemented by backends that count the writes made to each key.
type Versioned interface {
	Revision(ctx context.Context, key string) (int64, error)
}
