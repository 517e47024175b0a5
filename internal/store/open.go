package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sis-portal/pkg/cache"
	"github.com/noah-isme/sis-portal/pkg/config"
	"github.com/noah-isme/sis-portal/pkg/database"
	"github.com/noah-isme/sis-portal/pkg/storage"
)

// Deps carries the shared clients a backend may need.
type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Dial connects the clients the configured store driver needs. Redis is also
// dialled when withRedis is set. The closer releases every opened client.
func Dial(cfg *config.Config, withRedis bool) (Deps, func() error, error) {
	var deps Deps
	closers := make([]func() error, 0, 2)
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if cfg.Store.Driver == config.StoreDriverPostgres {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return deps, closeAll, err
		}
		deps.DB = db
		closers = append(closers, db.Close)
	}
	if withRedis || cfg.Store.Driver == config.StoreDriverRedis {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			_ = closeAll()
			return Deps{}, func() error { return nil }, err
		}
		deps.Redis = client
		closers = append(closers, client.Close)
	}
	return deps, closeAll, nil
}

// OpenBackend builds the backend selected by cfg.Driver. The returned closer
// releases resources owned by the backend itself and is never nil.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, deps Deps) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.StoreDriverMemory:
		return NewMemoryBackend(), noop, nil
	case config.StoreDriverFile:
		files, err := storage.NewLocalStorage(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return NewFileBackend(files), noop, nil
	case config.StoreDriverBadger, "":
		db, err := OpenBadger(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return NewBadgerBackend(db), db.Close, nil
	case config.StoreDriverRedis:
		if deps.Redis == nil {
			return nil, noop, fmt.Errorf("store driver %q requires a redis client", cfg.Driver)
		}
		return NewRedisBackend(deps.Redis), noop, nil
	case config.StoreDriverPostgres:
		if deps.DB == nil {
			return nil, noop, fmt.Errorf("store driver %q requires a database", cfg.Driver)
		}
		backend := NewPostgresBackend(deps.DB)
		if err := backend.EnsureSchema(ctx); err != nil {
			return nil, noop, err
		}
		return backend, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
