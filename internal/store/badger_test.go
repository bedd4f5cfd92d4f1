package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerRepository(t *testing.T) {
	b, err := NewBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	exerciseRepository(t, b)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := NewBadger(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, b.Save(ctx, "driver-1", sampleSnapshot()))
	require.NoError(t, b.Close())

	b, err = NewBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	got, err := b.Load(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Completed)
}

func TestBadgerRequiresPath(t *testing.T) {
	_, err := NewBadger(BadgerConfig{})
	assert.Error(t, err)
}
