package api

import (
	"context"
	"sync"

	"stoprouter/internal/session"
)

// Sessions hands out one State per session id and serializes commands on
// it. States are restored from the repository on first use and refreshed
// before every command, so writes from other processes sharing the backend
// are picked up instead of overwritten.
type Sessions struct {
	svc     *session.Service
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	mu sync.Mutex
	st *session.State
}

func NewSessions(svc *session.Service) *Sessions {
	return &Sessions{svc: svc, entries: map[string]*sessionEntry{}}
}

// With runs fn while holding the session's lock.
func (s *Sessions) With(ctx context.Context, id string, fn func(st *session.State) error) error {
	s.mu.Lock()
	e := s.entries[id]
	if e == nil {
		e = &sessionEntry{}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st == nil {
		e.st = s.svc.Restore(ctx, id)
	} else {
		e.st = s.svc.Refresh(ctx, e.st)
	}
	return fn(e.st)
}
