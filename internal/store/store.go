package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Observer receives the duration of every backend call.
type Observer interface {
	ObserveStoreOperation(op, key string, duration time.Duration)
}

// SeedFunc returns the default payload for each collection key it knows about.
type SeedFunc func() map[string]interface{}

// Options tunes a RecordStore.
type Options struct {
	Prefix   string
	Logger   *zap.Logger
	Observer Observer
	Seed     SeedFunc
}

// RecordStore reads and writes whole JSON collections by key.
type RecordStore struct {
	backend  Backend
	prefix   string
	logger   *zap.Logger
	observer Observer
	seed     SeedFunc

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a RecordStore over backend.
func New(backend Backend, opts Options) *RecordStore {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RecordStore{
		backend:  backend,
		prefix:   prefix,
		logger:   logger,
		observer: opts.Observer,
		seed:     opts.Seed,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock acquires the write lock of key and returns its release func. Callers hold
// it across a read-modify-write cycle so concurrent writers do not lose updates.
func (s *RecordStore) Lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get decodes the collection stored under key into dest. It reports false when
// the key is absent or its payload cannot be decoded; the latter is logged and
// otherwise treated as absent. Backend faults are returned as errors.
func (s *RecordStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := s.load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		s.logger.Error("record store read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if len(payload) == 0 || string(payload) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		s.logger.Warn("discarding corrupt collection", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Revision reports how many times key has been written. ok is false when the
// backend does not track revisions.
func (s *RecordStore) Revision(ctx context.Context, key string) (rev int64, ok bool, err error) {
	versioned, ok := s.backend.(Versioned)
	if !ok {
		return 0, false, nil
	}
	rev, err = versioned.Revision(ctx, s.prefix+key)
	if err != nil {
		return 0, true, err
	}
	return rev, true, nil
}

// Exists reports whether a payload is stored under key.
func (s *RecordStore) Exists(ctx context.Context, key string) (bool, error) {
	var raw json.RawMessage
	return s.Get(ctx, key, &raw)
}

// Set replaces the collection stored under key. Failures are logged and reported as false.
func (s *RecordStore) Set(ctx context.Context, key string, value interface{}) bool {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("encode collection", zap.String("key", key), zap.Error(err))
		return false
	}
	start := time.Now()
	err = s.backend.Save(ctx, s.prefix+key, payload)
	s.observe("save", key, start)
	if err != nil {
		s.logger.Error("record store write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Remove deletes key.
func (s *RecordStore) Remove(ctx context.Context, key string) bool {
	start := time.Now()
	err := s.backend.Delete(ctx, s.prefix+key)
	s.observe("delete", key, start)
	if err != nil {
		s.logger.Error("record store delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// ClearAll removes every portal collection. It returns false if any removal failed.
func (s *RecordStore) ClearAll(ctx context.Context) bool {
	ok := true
	for _, key := range Keys {
		if !s.Remove(ctx, key) {
			ok = false
		}
	}
	s.logger.Info("record store cleared", zap.Bool("complete", ok))
	return ok
}

// Init writes the seed payload for every collection that is not yet present.
func (s *RecordStore) Init(ctx context.Context) error {
	if s.seed == nil {
		return nil
	}
	defaults := s.seed()
	for _, key := range Keys {
		value, ok := defaults[key]
		if !ok {
			continue
		}
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if !s.Set(ctx, key, value) {
			return fmt.Errorf("seed %s: write failed", key)
		}
		s.logger.Info("seeded collection", zap.String("key", key))
	}
	return nil
}

// Reset clears every collection then seeds the defaults again.
func (s *RecordStore) Reset(ctx context.Context) error {
	if !s.ClearAll(ctx) {
		return errors.New("reset: clear failed")
	}
	return s.Init(ctx)
}

func (s *RecordStore) load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	payload, err := s.backend.Load(ctx, s.prefix+key)
	s.observe("load", key, start)
	return payload, err
}

func (s *RecordStore) observe(op, key string, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveStoreOperation(op, key, time.Since(start))
}
