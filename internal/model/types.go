// Package model holds the core domain types for route sequencing and tracking.
package model

import (
	"stoprouter/internal/geo"
)

// DefaultSequenceLabel is used when a row carries no sequence label.
const DefaultSequenceLabel = "---"

// StopRow is one loader-supplied input row. Coordinates are pointers so a
// missing value can be told apart from zero.
type StopRow struct {
	Address       string   `json:"address"`
	District      string   `json:"district,omitempty"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	SequenceLabel string   `json:"sequenceLabel,omitempty"`
}

// Stop is a single delivery location within a Route.
type Stop struct {
	UID           string  `json:"uid"`
	Address       string  `json:"address"`
	District      string  `json:"district,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	SequenceLabel string  `json:"sequenceLabel"`
	OrderIndex    int     `json:"orderIndex"`
}

// Point returns the stop's coordinates.
func (s Stop) Point() geo.Point { return geo.Point{Lat: s.Lat, Lng: s.Lng} }

// Route is an ordered sequence of stops with an optional road path.
// Routes are replaced, not reordered in place.
type Route struct {
	Stops []Stop      `json:"stops"`
	Path  []geo.Point `json:"path,omitempty"`
}

// Len returns the number of stops.
func (r Route) Len() int { return len(r.Stops) }

// IsEmpty reports whether the route has no stops.
func (r Route) IsEmpty() bool { return len(r.Stops) == 0 }

// Points returns stop coordinates in route order.
func (r Route) Points() []geo.Point {
	out := make([]geo.Point, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = s.Point()
	}
	return out
}

// Find returns the stop with the given uid.
func (r Route) Find(uid string) (Stop, bool) {
	for _, s := range r.Stops {
		if s.UID == uid {
			return s, true
		}
	}
	return Stop{}, false
}

// Has reports whether uid belongs to the route.
func (r Route) Has(uid string) bool {
	_, ok := r.Find(uid)
	return ok
}

// Renumbered returns a copy of stops with OrderIndex set to 1..n in slice order.
func Renumbered(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	for i, s := range stops {
		s.OrderIndex = i + 1
		out[i] = s
	}
	return out
}

// StopStatus is the completion state of a stop.
type StopStatus string

const (
	StatusPending   StopStatus = "PENDING"
	StatusCompleted StopStatus = "COMPLETED"
)

// StopView is what the presentation layer needs to render one marker/card.
type StopView struct {
	UID           string     `json:"uid"`
	OrderIndex    int        `json:"orderIndex"`
	Address       string     `json:"address"`
	District      string     `json:"district,omitempty"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	Label         string     `json:"label"`
	Status        StopStatus `json:"status"`
	IsNext        bool       `json:"isNext"`
	NavigationURL string     `json:"navigationUrl"`
}

// RouteMetrics are the derived values shown alongside the route.
type RouteMetrics struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Remaining   int     `json:"remaining"`
	RemainingKm float64 `json:"remainingKm"`
	NextUID     string  `json:"nextUid,omitempty"`
}

// RouteView is the whole-route read model.
type RouteView struct {
	SessionID string       `json:"sessionId"`
	Stops     []StopView   `json:"stops"`
	Path      []geo.Point  `json:"path"`
	Metrics   RouteMetrics `json:"metrics"`
}
