package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		SavedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Stops: []model.Stop{
			{UID: "a", Address: "Rua A, 1", District: "Centro", Lat: -23.55, Lng: -46.63, SequenceLabel: "1", OrderIndex: 1},
			{UID: "b", Address: "Rua B, 2", Lat: -23.56, Lng: -46.64, SequenceLabel: "---", OrderIndex: 2},
		},
		Path:      []geo.Point{{Lat: -23.55, Lng: -46.63}, {Lat: -23.555, Lng: -46.635}, {Lat: -23.56, Lng: -46.64}},
		Completed: []string{"a"},
		Overrides: map[string]string{"b": "Back door"},
	}
}

// exerciseRepository runs the behaviour every backend must share.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Load(ctx, "driver-1")
	require.ErrorIs(t, err, ErrNotFound)

	snap := sampleSnapshot()
	require.NoError(t, repo.Save(ctx, "driver-1", snap))

	got, err := repo.Load(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, got.Version)
	assert.Equal(t, snap.Stops, got.Stops)
	assert.Equal(t, snap.Path, got.Path)
	assert.Equal(t, snap.Completed, got.Completed)
	assert.Equal(t, snap.Overrides, got.Overrides)
	assert.True(t, snap.SavedAt.Equal(got.SavedAt))

	// sessions are independent
	_, err = repo.Load(ctx, "driver-2")
	require.ErrorIs(t, err, ErrNotFound)

	snap.Completed = []string{"a", "b"}
	require.NoError(t, repo.Save(ctx, "driver-1", snap))
	got, err = repo.Load(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Completed)

	require.NoError(t, repo.Clear(ctx, "driver-1"))
	_, err = repo.Load(ctx, "driver-1")
	require.ErrorIs(t, err, ErrNotFound)

	// clearing twice is fine
	require.NoError(t, repo.Clear(ctx, "driver-1"))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory())
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	valid, err := Encode(sampleSnapshot())
	require.NoError(t, err)
	_, err = Decode(valid)
	require.NoError(t, err)

	mutate := func(fn func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(valid, &m))
		fn(m)
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		name string
		doc  []byte
		want error
	}{
		{"not json", []byte("{nope"), ErrCorrupt},
		{"truncated", valid[:len(valid)/2], ErrCorrupt},
		{"no version", mutate(func(m map[string]any) { delete(m, "version") }), ErrUnversioned},
		{"future version", mutate(func(m map[string]any) { m["version"] = 99 }), ErrSchemaMismatch},
		{"completed not on route", mutate(func(m map[string]any) { m["completed"] = []string{"zzz"} }), ErrCorrupt},
		{"gap in order", mutate(func(m map[string]any) {
			stops := m["stops"].([]any)
			stops[1].(map[string]any)["orderIndex"] = 3
		}), ErrCorrupt},
		{"duplicate uid", mutate(func(m map[string]any) {
			stops := m["stops"].([]any)
			stops[1].(map[string]any)["uid"] = "a"
		}), ErrCorrupt},
		{"bad latitude", mutate(func(m map[string]any) {
			stops := m["stops"].([]any)
			stops[0].(map[string]any)["lat"] = 123.0
		}), ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMemoryLoadReportsCorruptDocument(t *testing.T) {
	m := NewMemory()
	m.Put("driver-1", []byte(`{"stops":[]}`))
	_, err := m.Load(context.Background(), "driver-1")
	assert.ErrorIs(t, err, ErrUnversioned)
}

func TestEncodeStampsVersion(t *testing.T) {
	snap := sampleSnapshot()
	snap.Version = 7
	snap.SavedAt = time.Time{}
	b, err := Encode(snap)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, got.Version)
	assert.False(t, got.SavedAt.IsZero())
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "file", ResolveBackend("", ""))
	assert.Equal(t, "postgres", ResolveBackend("", "postgres://localhost/x"))
	assert.Equal(t, "badger", ResolveBackend("badger", "postgres://localhost/x"))

	dir := t.TempDir()
	b, err := Open(ctx, Options{Dir: dir})
	require.NoError(t, err)
	require.IsType(t, nopCloser{}, b)
	assert.IsType(t, &File{}, b.(nopCloser).Repository)
	require.NoError(t, b.Save(ctx, "driver-1", sampleSnapshot()))
	// the default backend persists across repository instances
	reopened, err := Open(ctx, Options{Dir: dir})
	require.NoError(t, err)
	_, err = reopened.Load(ctx, "driver-1")
	require.NoError(t, err)

	b, err = Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b.(nopCloser).Repository)
	require.NoError(t, b.Close())

	b, err = Open(ctx, Options{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	exerciseRepository(t, b)

	b, err = Open(ctx, Options{Backend: "badger", Dir: t.TempDir()})
	require.NoError(t, err)
	exerciseRepository(t, b)
	require.NoError(t, b.Close())

	_, err = Open(ctx, Options{Backend: "redis"})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Backend: "postgres"})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Backend: "floppy"})
	assert.Error(t, err)
}
