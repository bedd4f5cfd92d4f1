package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoprouter/internal/errs"
)

func f(v float64) *float64 { return &v }

func TestStopsFromRows(t *testing.T) {
	rows := []StopRow{
		{Address: " Rua A, 10 ", District: "Centro", Lat: f(-23.5), Lng: f(-46.6), SequenceLabel: "S-1"},
		{Address: "Rua B, 20", Lat: nil, Lng: f(-46.6)},
		{Address: "Rua C, 30", Lat: f(-23.6), Lng: f(-46.7)},
	}

	stops, err := StopsFromRows(rows)

	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "Rua A, 10", stops[0].Address)
	assert.Equal(t, "Centro", stops[0].District)
	assert.Equal(t, "S-1", stops[0].SequenceLabel)
	assert.Equal(t, DefaultSequenceLabel, stops[1].SequenceLabel)
	assert.Zero(t, stops[0].OrderIndex)
	assert.NotEqual(t, stops[0].UID, stops[1].UID)
}

func TestStopsFromRowsRejectsNonFinite(t *testing.T) {
	rows := []StopRow{{Address: "x", Lat: f(math.NaN()), Lng: f(0)}}

	stops, err := StopsFromRows(rows)

	assert.Nil(t, stops)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStopUIDStableAcrossReordering(t *testing.T) {
	a := StopRow{Address: "Rua A", Lat: f(1), Lng: f(1), SequenceLabel: "7"}
	b := StopRow{Address: "Rua B", Lat: f(2), Lng: f(2), SequenceLabel: "8"}

	first, err := StopsFromRows([]StopRow{a, b})
	require.NoError(t, err)
	second, err := StopsFromRows([]StopRow{b, a})
	require.NoError(t, err)

	assert.Equal(t, first[0].UID, second[1].UID)
	assert.Equal(t, first[1].UID, second[0].UID)

	// coordinates are not part of the identity
	moved := a
	moved.Lat = f(5)
	third, err := StopsFromRows([]StopRow{moved})
	require.NoError(t, err)
	assert.Equal(t, first[0].UID, third[0].UID)
}

func TestStopUIDDuplicateRowsStayUnique(t *testing.T) {
	row := StopRow{Address: "Rua A", Lat: f(1), Lng: f(1)}

	stops, err := StopsFromRows([]StopRow{row, row, row})

	require.NoError(t, err)
	uids := map[string]bool{}
	for _, s := range stops {
		uids[s.UID] = true
	}
	assert.Len(t, uids, 3)
	assert.Equal(t, StopUID("Rua A", DefaultSequenceLabel, 1), stops[0].UID)
}

func TestRouteHelpers(t *testing.T) {
	r := Route{Stops: Renumbered([]Stop{{UID: "a", Lat: 1, Lng: 2}, {UID: "b", Lat: 3, Lng: 4}})}

	assert.Equal(t, 2, r.Len())
	assert.False(t, r.IsEmpty())
	assert.Equal(t, 1, r.Stops[0].OrderIndex)
	assert.Equal(t, 2, r.Stops[1].OrderIndex)
	assert.True(t, r.Has("b"))
	assert.False(t, r.Has("c"))
	pts := r.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, 3.0, pts[1].Lat)
}
