package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "state"))
	require.NoError(t, err)
	exerciseRepository(t, f)
}

func TestFileSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Save(ctx, "driver-1", sampleSnapshot()))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session-driver-1.json", entries[0].Name())
}

func TestFileFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, f.Save(ctx, "driver-1", sampleSnapshot()))

	// a directory that cannot be written to makes CreateTemp fail
	broken := &File{Dir: filepath.Join(dir, "missing")}
	assert.Error(t, broken.Save(ctx, "driver-1", sampleSnapshot()))

	got, err := f.Load(ctx, "driver-1")
	require.NoError(t, err)
	assert.Len(t, got.Stops, 2)
}

func TestFileLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-driver-1.json"), []byte(`{"version":1,"stops":[{"uid":""}]}`), 0o600))
	_, err = f.Load(context.Background(), "driver-1")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileNameHashesUnsafeIDs(t *testing.T) {
	assert.Equal(t, "session-abc_1-x.json", fileName("abc_1-x"))
	name := fileName("../../etc/passwd")
	assert.True(t, strings.HasPrefix(name, "session-"))
	assert.NotContains(t, name, "/")
	assert.NotEqual(t, name, fileName("../../etc/shadow"))
}
