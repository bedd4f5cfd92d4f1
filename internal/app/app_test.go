package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoprouter/internal/config"
	"stoprouter/internal/geo"
	"stoprouter/internal/logger"
	"stoprouter/internal/store"
)

func TestNewWithFileStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "file"
	cfg.Store.Dir = t.TempDir()
	cfg.Routing.BaseURL = "http://127.0.0.1:1"
	cfg.Routing.Attempts = 1
	cfg.Routing.Backoff = 0

	a, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.Redis)
	_, err = a.Repo.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	pts := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	assert.Equal(t, pts, a.Resolver.Resolve(context.Background(), pts))
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Routing.Strategy = "teleport"
	_, err := New(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Store.RedisURL = "not a url"
	_, err = New(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)
}
