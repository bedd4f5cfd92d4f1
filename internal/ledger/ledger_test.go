package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

func testRoute() model.Route {
	return model.Route{
		Stops: model.Renumbered([]model.Stop{
			{UID: "A", Lat: 0, Lng: 0, SequenceLabel: "1"},
			{UID: "C", Lat: 0, Lng: 1, SequenceLabel: "3"},
			{UID: "B", Lat: 0, Lng: 2, SequenceLabel: "2"},
			{UID: "D", Lat: 1, Lng: 0, SequenceLabel: "4"},
		}),
		Path: []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}, {Lat: 1, Lng: 0}},
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	once, twice := New(), New()

	once.MarkComplete("A")
	twice.MarkComplete("A")
	twice.MarkComplete("A")

	assert.Equal(t, once.CompletedUIDs(), twice.CompletedUIDs())
	assert.Equal(t, model.StatusCompleted, twice.Status("A"))

	twice.MarkPending("A")
	twice.MarkPending("A")
	assert.Equal(t, model.StatusPending, twice.Status("A"))
	assert.Zero(t, twice.CompletedCount())
}

func TestToggle(t *testing.T) {
	l := New()

	assert.Equal(t, model.StatusCompleted, l.Toggle("B"))
	assert.Equal(t, model.StatusPending, l.Toggle("B"))
	assert.False(t, l.IsCompleted("B"))
}

func TestNextTargetAndRemaining(t *testing.T) {
	r := testRoute()
	l := New()

	next, ok := l.NextTarget(r)
	require.True(t, ok)
	assert.Equal(t, "A", next.UID)
	assert.Equal(t, 4, l.Remaining(r))

	l.MarkComplete("A")
	l.MarkComplete("B")
	next, ok = l.NextTarget(r)
	require.True(t, ok)
	assert.Equal(t, "C", next.UID)
	assert.Equal(t, 2, l.Remaining(r))

	l.MarkComplete("C")
	l.MarkComplete("D")
	_, ok = l.NextTarget(r)
	assert.False(t, ok)
	assert.Zero(t, l.Remaining(r))
}

func TestRemainingKmSkipsCompletedStops(t *testing.T) {
	r := testRoute()
	l := New()

	all := (geo.DistanceKm(geo.Point{Lat: 0, Lng: 0}, geo.Point{Lat: 0, Lng: 1}) +
		geo.DistanceKm(geo.Point{Lat: 0, Lng: 1}, geo.Point{Lat: 0, Lng: 2}) +
		geo.DistanceKm(geo.Point{Lat: 0, Lng: 2}, geo.Point{Lat: 1, Lng: 0})) * RoadFactor
	assert.InDelta(t, all, l.RemainingKm(r), 1e-9)

	// with C done the estimate jumps straight from A to B
	l.MarkComplete("C")
	want := (geo.DistanceKm(geo.Point{Lat: 0, Lng: 0}, geo.Point{Lat: 0, Lng: 2}) +
		geo.DistanceKm(geo.Point{Lat: 0, Lng: 2}, geo.Point{Lat: 1, Lng: 0})) * RoadFactor
	assert.InDelta(t, want, l.RemainingKm(r), 1e-9)

	l.MarkComplete("A")
	l.MarkComplete("B")
	assert.Zero(t, l.RemainingKm(r))
}

func TestCompact(t *testing.T) {
	r := testRoute()
	l := New()
	l.MarkComplete("C")
	l.SetOverride("C", "gone")
	l.SetOverride("D", "back door")
	l.SetOverride("A", "first")

	next, nl := l.Compact(r)

	require.Len(t, next.Stops, r.Len()-1)
	assert.Equal(t, []string{"A", "B", "D"}, []string{next.Stops[0].UID, next.Stops[1].UID, next.Stops[2].UID})
	for i, s := range next.Stops {
		assert.Equal(t, i+1, s.OrderIndex)
	}
	assert.Nil(t, next.Path)
	assert.Zero(t, nl.CompletedCount())
	assert.Equal(t, map[string]string{"A": "first", "D": "back door"}, nl.Overrides())

	// inputs untouched
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, 4, r.Stops[3].OrderIndex)
	assert.True(t, l.IsCompleted("C"))
}

func TestCompactAllCompleted(t *testing.T) {
	r := testRoute()
	l := New()
	for _, s := range r.Stops {
		l.MarkComplete(s.UID)
	}

	next, nl := l.Compact(r)

	assert.True(t, next.IsEmpty())
	assert.Zero(t, nl.CompletedCount())
	assert.Empty(t, nl.Overrides())
}

func TestOverrides(t *testing.T) {
	r := testRoute()
	l := New()

	assert.Equal(t, "3", l.Label(r.Stops[1]))
	l.SetOverride("C", "portaria")
	assert.Equal(t, "portaria", l.Label(r.Stops[1]))
	l.SetOverride("C", "fundos")
	v, ok := l.Override("C")
	require.True(t, ok)
	assert.Equal(t, "fundos", v)

	l.SetOverride("C", "")
	_, ok = l.Override("C")
	assert.False(t, ok)
	assert.Equal(t, "3", l.Label(r.Stops[1]))
}

func TestPruneAndClone(t *testing.T) {
	l := FromParts([]string{"A", "Z"}, map[string]string{"B": "x", "Y": "y", "E": ""})
	_, hasEmpty := l.Override("E")
	assert.False(t, hasEmpty)

	c := l.Clone()
	l.Prune(testRoute())

	assert.Equal(t, []string{"A"}, l.CompletedUIDs())
	assert.Equal(t, map[string]string{"B": "x"}, l.Overrides())
	assert.Equal(t, []string{"A", "Z"}, c.CompletedUIDs())
}

func TestMetrics(t *testing.T) {
	r := testRoute()
	l := New()
	l.MarkComplete("A")

	m := l.Metrics(r)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 1, m.Completed)
	assert.Equal(t, 3, m.Remaining)
	assert.Equal(t, "C", m.NextUID)
	assert.InDelta(t, l.RemainingKm(r), m.RemainingKm, 1e-12)
}
