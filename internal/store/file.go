package store

import (
	"context"
	"errors"

	"github.com/noah-isme/sis-portal/pkg/storage"
)

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	files *storage.LocalStorage
}

// NewFileBackend wraps a local storage directory.
func NewFileBackend(files *storage.LocalStorage) *FileBackend {
	return &FileBackend{files: files}
}

// Load reads the file for key.
func (b *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	payload, err := b.files.Read(fileName(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return payload, nil
}

// Save atomically replaces the file for key.
func (b *FileBackend) Save(_ context.Context, key string, payload []byte) error {
	_, err := b.files.Save(fileName(key), payload)
	return err
}

// Delete removes the file for key.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	return b.files.Delete(fileName(key))
}

func fileName(key string) string {
	return key + ".json"
}
