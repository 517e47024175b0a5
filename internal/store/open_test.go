package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/pkg/config"
)

func TestOpenBackendSelectsDriver(t *testing.T) {
	ctx := context.Background()

	backend, closer, err := OpenBackend(ctx, config.StoreConfig{Driver: config.StoreDriverMemory}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, backend)
	assert.NoError(t, closer())

	backend, closer, err = OpenBackend(ctx, config.StoreConfig{Driver: config.StoreDriverFile, Path: t.TempDir()}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, backend)
	assert.NoError(t, closer())

	backend, closer, err = OpenBackend(ctx, config.StoreConfig{Driver: config.StoreDriverBadger, Path: t.TempDir()}, Deps{})
	require.NoError(t, err)
	assert.IsType(t, &BadgerBackend{}, backend)
	assert.NoError(t, closer())
}

func TestOpenBackendRequiresClients(t *testing.T) {
	ctx := context.Background()

	_, _, err := OpenBackend(ctx, config.StoreConfig{Driver: config.StoreDriverRedis}, Deps{})
	assert.Error(t, err)

	_, _, err = OpenBackend(ctx, config.StoreConfig{Driver: config.StoreDriverPostgres}, Deps{})
	assert.Error(t, err)

	_, closer, err := OpenBackend(ctx, config.StoreConfig{Driver: "etcd"}, Deps{})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}

func TestDialSkipsUnneededClients(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}

	deps, closer, err := Dial(cfg, false)
	require.NoError(t, err)
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Redis)
	assert.NoError(t, closer())
}
