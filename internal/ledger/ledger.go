// Package ledger tracks per-stop completion and label overrides against a
// route, and derives the driver-facing metrics from them.
//
// Entries are keyed by stop UID, never by position, so they survive
// re-sequencing and compaction.
package ledger

import (
	"sort"

	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

// RoadFactor converts straight-line distance into an estimate of road distance.
const RoadFactor = 1.3

// Ledger is not safe for concurrent use; callers serialize per session.
type Ledger struct {
	completed map[string]struct{}
	overrides map[string]string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{completed: map[string]struct{}{}, overrides: map[string]string{}}
}

// FromParts rebuilds a ledger from persisted data.
func FromParts(completed []string, overrides map[string]string) *Ledger {
	l := New()
	for _, uid := range completed {
		l.completed[uid] = struct{}{}
	}
	for uid, label := range overrides {
		if label != "" {
			l.overrides[uid] = label
		}
	}
	return l
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	return FromParts(l.CompletedUIDs(), l.overrides)
}

// MarkComplete is idempotent.
func (l *Ledger) MarkComplete(uid string) { l.completed[uid] = struct{}{} }

// MarkPending is idempotent.
func (l *Ledger) MarkPending(uid string) { delete(l.completed, uid) }

// Toggle flips the stop and returns its new status.
func (l *Ledger) Toggle(uid string) model.StopStatus {
	if l.IsCompleted(uid) {
		l.MarkPending(uid)
		return model.StatusPending
	}
	l.MarkComplete(uid)
	return model.StatusCompleted
}

func (l *Ledger) IsCompleted(uid string) bool {
	_, ok := l.completed[uid]
	return ok
}

func (l *Ledger) Status(uid string) model.StopStatus {
	if l.IsCompleted(uid) {
		return model.StatusCompleted
	}
	return model.StatusPending
}

// CompletedUIDs returns the completed set in sorted order.
func (l *Ledger) CompletedUIDs() []string {
	out := make([]string, 0, len(l.completed))
	for uid := range l.completed {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// CompletedCount is the size of the completed set.
func (l *Ledger) CompletedCount() int { return len(l.completed) }

// SetOverride stores a display label for uid. An empty label removes the
// override so the stop shows its source label again.
func (l *Ledger) SetOverride(uid, label string) {
	if label == "" {
		delete(l.overrides, uid)
		return
	}
	l.overrides[uid] = label
}

// Override returns the override label for uid, if any.
func (l *Ledger) Override(uid string) (string, bool) {
	v, ok := l.overrides[uid]
	return v, ok
}

// Overrides returns a copy of the override map.
func (l *Ledger) Overrides() map[string]string {
	out := make(map[string]string, len(l.overrides))
	for k, v := range l.overrides {
		out[k] = v
	}
	return out
}

// Label is the label to display for s.
func (l *Ledger) Label(s model.Stop) string {
	if v, ok := l.overrides[s.UID]; ok {
		return v
	}
	return s.SequenceLabel
}

// Prune drops completed and override entries whose uid is not on the route.
func (l *Ledger) Prune(r model.Route) {
	keep := make(map[string]struct{}, r.Len())
	for _, s := range r.Stops {
		keep[s.UID] = struct{}{}
	}
	for uid := range l.completed {
		if _, ok := keep[uid]; !ok {
			delete(l.completed, uid)
		}
	}
	for uid := range l.overrides {
		if _, ok := keep[uid]; !ok {
			delete(l.overrides, uid)
		}
	}
}

// Pending returns the pending stops in route order.
func (l *Ledger) Pending(r model.Route) []model.Stop {
	out := make([]model.Stop, 0, r.Len())
	for _, s := range r.Stops {
		if !l.IsCompleted(s.UID) {
			out = append(out, s)
		}
	}
	return out
}

// NextTarget is the pending stop with the lowest order index.
func (l *Ledger) NextTarget(r model.Route) (model.Stop, bool) {
	var (
		best  model.Stop
		found bool
	)
	for _, s := range r.Stops {
		if l.IsCompleted(s.UID) {
			continue
		}
		if !found || s.OrderIndex < best.OrderIndex {
			best, found = s, true
		}
	}
	return best, found
}

// Remaining counts pending stops.
func (l *Ledger) Remaining(r model.Route) int {
	n := 0
	for _, s := range r.Stops {
		if !l.IsCompleted(s.UID) {
			n++
		}
	}
	return n
}

// RemainingKm estimates the road distance still to drive: the straight-line
// length through the pending stops in route order, times RoadFactor.
func (l *Ledger) RemainingKm(r model.Route) float64 {
	pending := l.Pending(r)
	pts := make([]geo.Point, len(pending))
	for i, s := range pending {
		pts[i] = s.Point()
	}
	return geo.PathKm(pts) * RoadFactor
}

// Compact returns the route reduced to its pending stops, renumbered 1..m,
// and a ledger with nothing completed and overrides kept only for the
// surviving uids. The returned route has no path; neither l nor r is
// modified.
func (l *Ledger) Compact(r model.Route) (model.Route, *Ledger) {
	kept := model.Route{Stops: model.Renumbered(l.Pending(r))}
	next := New()
	for _, s := range kept.Stops {
		if v, ok := l.overrides[s.UID]; ok {
			next.overrides[s.UID] = v
		}
	}
	return kept, next
}

// Metrics bundles the derived values for r.
func (l *Ledger) Metrics(r model.Route) model.RouteMetrics {
	m := model.RouteMetrics{
		Total:       r.Len(),
		Remaining:   l.Remaining(r),
		RemainingKm: l.RemainingKm(r),
	}
	m.Completed = m.Total - m.Remaining
	if next, ok := l.NextTarget(r); ok {
		m.NextUID = next.UID
	}
	return m
}
