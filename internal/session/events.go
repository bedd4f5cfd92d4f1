package session

import "time"

const (
	EventRouteOptimized = "route.optimized"
	EventStopCompleted  = "stop.completed"
	EventStopPending    = "stop.pending"
	EventStopLabeled    = "stop.labeled"
	EventRouteCompacted = "route.compacted"
	EventSessionReset   = "session.reset"
)

// Event is a notification about a session change.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher fans events out to interested listeners. Publish must not block.
type Publisher interface {
	Publish(sessionID string, ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(sessionID string, ev Event)

func (f PublisherFunc) Publish(sessionID string, ev Event) { f(sessionID, ev) }
