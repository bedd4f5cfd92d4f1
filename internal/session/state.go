// Package session owns one driver's working state and the operator
// commands that mutate it. Every mutation is persisted through a
// store.Repository and announced to a Publisher.
package session

import (
	"time"

	"stoprouter/internal/ledger"
	"stoprouter/internal/model"
	"stoprouter/internal/store"
)

// State is the route and ledger of one session. It is not safe for
// concurrent use; the owner serializes commands.
type State struct {
	ID     string
	Route  model.Route
	Ledger *ledger.Ledger
	// SavedAt is the timestamp of the snapshot this state was last loaded
	// from or written to; zero when it has never been stored.
	SavedAt time.Time
}

// NewState returns an empty session.
func NewState(id string) *State {
	return &State{ID: id, Ledger: ledger.New()}
}

// Snapshot captures st for persistence.
func (st *State) Snapshot(savedAt time.Time) store.Snapshot {
	stops := make([]model.Stop, len(st.Route.Stops))
	copy(stops, st.Route.Stops)
	return store.Snapshot{
		SavedAt:   savedAt.UTC(),
		Stops:     stops,
		Path:      append(st.Route.Path[:0:0], st.Route.Path...),
		Completed: st.Ledger.CompletedUIDs(),
		Overrides: st.Ledger.Overrides(),
	}
}

// FromSnapshot rebuilds a State. Ledger entries for uids that are not on
// the route are dropped.
func FromSnapshot(id string, snap store.Snapshot) *State {
	st := &State{
		ID:      id,
		Route:   model.Route{Stops: snap.Stops, Path: snap.Path},
		Ledger:  ledger.FromParts(snap.Completed, snap.Overrides),
		SavedAt: snap.SavedAt,
	}
	st.Ledger.Prune(st.Route)
	return st
}
