package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stoprouter/internal/errs"
	"stoprouter/internal/geo"
	"stoprouter/internal/ledger"
	"stoprouter/internal/metrics"
	"stoprouter/internal/model"
	"stoprouter/internal/opt"
	"stoprouter/internal/store"
)

// PathResolver turns ordered coordinates into a display polyline. It never
// fails; *roadpath.Resolver is the production implementation.
type PathResolver interface {
	Resolve(ctx context.Context, pts []geo.Point) []geo.Point
}

type Service struct {
	resolver PathResolver
	repo     store.Repository
	pub      Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the collaborators. repo and pub may be nil.
func NewService(resolver PathResolver, repo store.Repository, pub Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, repo: repo, pub: pub, logger: logger, now: time.Now}
}

// Restore loads the session's snapshot. Any failure is logged and an empty
// state is returned.
func (s *Service) Restore(ctx context.Context, id string) *State {
	if s.repo == nil {
		return NewState(id)
	}
	snap, err := s.repo.Load(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("session_restore_empty", "session", id)
		return NewState(id)
	case err != nil:
		s.logger.Warn("session_restore_failed", "session", id, "err", err)
		return NewState(id)
	}
	st := FromSnapshot(id, snap)
	s.logger.Info("session_restored", "session", id, "stops", st.Route.Len(), "completed", st.Ledger.CompletedCount())
	return st
}

// Refresh reloads st when another writer stored a newer snapshot for the
// same session, or cleared one st had seen. Otherwise, including on load
// errors, st is returned unchanged.
func (s *Service) Refresh(ctx context.Context, st *State) *State {
	if s.repo == nil {
		return st
	}
	snap, err := s.repo.Load(ctx, st.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if st.SavedAt.IsZero() {
			return st
		}
		s.logger.Info("session_cleared_elsewhere", "session", st.ID)
		return NewState(st.ID)
	case err != nil:
		s.logger.Warn("session_refresh_failed", "session", st.ID, "err", err)
		return st
	}
	if !snap.SavedAt.After(st.SavedAt) {
		return st
	}
	s.logger.Debug("session_reloaded", "session", st.ID, "saved_at", snap.SavedAt)
	return FromSnapshot(st.ID, snap)
}

// Optimize validates rows, sequences them and attaches a road path. On a
// validation error st is left untouched.
func (s *Service) Optimize(ctx context.Context, st *State, rows []model.StopRow) error {
	stops, err := model.StopsFromRows(rows)
	if err != nil {
		return s.failed("optimize", err)
	}
	route, stats, err := opt.Sequence(stops)
	if err != nil {
		return s.failed("optimize", err)
	}
	metrics.SequencedStops.Observe(float64(stats.Stops))
	route.Path = s.resolver.Resolve(ctx, route.Points())

	next := st.Ledger.Clone()
	next.Prune(route)
	st.Route, st.Ledger = route, next

	s.logger.Info("route_optimized", "session", st.ID, "stops", stats.Stops, "straight_km", stats.StraightKm, "path_points", len(route.Path))
	s.commit(ctx, st, "optimize", EventRouteOptimized, map[string]any{
		"stops":      stats.Stops,
		"straightKm": stats.StraightKm,
	})
	return nil
}

// Toggle flips the stop between pending and completed.
func (s *Service) Toggle(ctx context.Context, st *State, uid string) (model.StopStatus, error) {
	if err := s.requireStop(st, uid); err != nil {
		return "", s.failed("toggle", err)
	}
	status := st.Ledger.Toggle(uid)
	s.commit(ctx, st, "toggle", statusEvent(status), map[string]any{"uid": uid})
	return status, nil
}

// MarkComplete is idempotent.
func (s *Service) MarkComplete(ctx context.Context, st *State, uid string) error {
	if err := s.requireStop(st, uid); err != nil {
		return s.failed("complete", err)
	}
	st.Ledger.MarkComplete(uid)
	s.commit(ctx, st, "complete", EventStopCompleted, map[string]any{"uid": uid})
	return nil
}

// MarkPending is idempotent.
func (s *Service) MarkPending(ctx context.Context, st *State, uid string) error {
	if err := s.requireStop(st, uid); err != nil {
		return s.failed("pending", err)
	}
	st.Ledger.MarkPending(uid)
	s.commit(ctx, st, "pending", EventStopPending, map[string]any{"uid": uid})
	return nil
}

// SetOverride replaces the displayed label of a stop. An empty label
// restores the source label.
func (s *Service) SetOverride(ctx context.Context, st *State, uid, label string) error {
	if err := s.requireStop(st, uid); err != nil {
		return s.failed("label", err)
	}
	st.Ledger.SetOverride(uid, label)
	stop, _ := st.Route.Find(uid)
	s.commit(ctx, st, "label", EventStopLabeled, map[string]any{"uid": uid, "label": st.Ledger.Label(stop)})
	return nil
}

// Compact drops completed stops, renumbers the rest and resolves a new road
// path. The route, ledger and path are swapped together once everything is
// computed. With nothing completed, an empty route included, it does
// nothing and returns false.
func (s *Service) Compact(ctx context.Context, st *State) (bool, error) {
	if st.Route.IsEmpty() || st.Ledger.CompletedCount() == 0 {
		metrics.SessionCommands.WithLabelValues("compact", "noop").Inc()
		return false, nil
	}
	removed := st.Ledger.CompletedCount()
	route, next := st.Ledger.Compact(st.Route)
	route.Path = s.resolver.Resolve(ctx, route.Points())
	st.Route, st.Ledger = route, next

	s.logger.Info("route_compacted", "session", st.ID, "removed", removed, "remaining", route.Len())
	s.commit(ctx, st, "compact", EventRouteCompacted, map[string]any{
		"removed":   removed,
		"remaining": route.Len(),
	})
	return true, nil
}

// Reset empties the session and deletes its snapshot.
func (s *Service) Reset(ctx context.Context, st *State) {
	st.Route = model.Route{}
	st.Ledger = ledger.New()
	st.SavedAt = time.Time{}
	if s.repo != nil {
		if err := s.repo.Clear(ctx, st.ID); err != nil {
			s.logger.Error("session_clear_failed", "session", st.ID, "err", err)
		}
	}
	metrics.SessionCommands.WithLabelValues("reset", "ok").Inc()
	s.publish(st.ID, EventSessionReset, nil)
}

func (s *Service) requireStop(st *State, uid string) error {
	if uid == "" {
		return errs.NewValueIsRequiredError("uid")
	}
	if !st.Route.Has(uid) {
		return errs.NewObjectNotFoundError("uid", uid)
	}
	return nil
}

func (s *Service) failed(command string, err error) error {
	metrics.SessionCommands.WithLabelValues(command, "error").Inc()
	return err
}

func (s *Service) commit(ctx context.Context, st *State, command, eventType string, data map[string]any) {
	metrics.SessionCommands.WithLabelValues(command, "ok").Inc()
	s.persist(ctx, st)
	s.publish(st.ID, eventType, data)
}

// persist logs failures; the previous snapshot stays readable.
func (s *Service) persist(ctx context.Context, st *State) {
	if s.repo == nil {
		return
	}
	savedAt := s.now().UTC()
	if err := s.repo.Save(ctx, st.ID, st.Snapshot(savedAt)); err != nil {
		metrics.SnapshotWrites.WithLabelValues("error").Inc()
		s.logger.Error("session_save_failed", "session", st.ID, "err", err)
		return
	}
	st.SavedAt = savedAt
	metrics.SnapshotWrites.WithLabelValues("ok").Inc()
}

func (s *Service) publish(sessionID, eventType string, data map[string]any) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(sessionID, Event{Type: eventType, SessionID: sessionID, At: s.now().UTC(), Data: data})
}

func statusEvent(status model.StopStatus) string {
	if status == model.StatusCompleted {
		return EventStopCompleted
	}
	return EventStopPending
}
