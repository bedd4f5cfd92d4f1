package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"stoprouter/internal/errs"
	"stoprouter/internal/model"
	"stoprouter/internal/session"
)

// SessionHandler serves /v1/session and everything below it:
//
//	GET    /v1/session?q=
//	DELETE /v1/session
//	POST   /v1/session/optimize
//	POST   /v1/session/compact
//	POST   /v1/session/stops/{uid}/toggle|complete|pending
//	PUT    /v1/session/stops/{uid}/label
//	GET    /v1/session/events (websocket)
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.getPrincipal(r)
	if err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
		return
	}
	id := p.DriverID
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/session"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			s.getSession(w, r, id)
		case http.MethodDelete:
			s.resetSession(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case rest == "optimize":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.optimize(w, r, id)
	case rest == "compact":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.compact(w, r, id)
	case rest == "events":
		s.EventsHandler(w, r, id)
	case len(parts) == 3 && parts[0] == "stops":
		s.stopCommand(w, r, id, parts[1], parts[2])
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, id string) {
	filter := r.URL.Query().Get("q")
	var view model.RouteView
	_ = s.Sessions.With(r.Context(), id, func(st *session.State) error {
		view = session.View(st, filter)
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request, id string) {
	var view model.RouteView
	_ = s.Sessions.With(r.Context(), id, func(st *session.State) error {
		s.Service.Reset(r.Context(), st)
		view = session.View(st, "")
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) optimize(w http.ResponseWriter, r *http.Request, id string) {
	var req optimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}
	// the resolver applies its own deadline
	ctx := context.WithoutCancel(r.Context())
	s.mutate(w, r, id, func(st *session.State) error {
		return s.Service.Optimize(ctx, st, req.rows())
	})
}

func (s *Server) compact(w http.ResponseWriter, r *http.Request, id string) {
	ctx := context.WithoutCancel(r.Context())
	s.mutate(w, r, id, func(st *session.State) error {
		_, err := s.Service.Compact(ctx, st)
		return err
	})
}

func (s *Server) stopCommand(w http.ResponseWriter, r *http.Request, id, uid, action string) {
	var cmd func(st *session.State) error
	switch action {
	case "toggle", "complete", "pending":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		cmd = func(st *session.State) error {
			switch action {
			case "toggle":
				_, err := s.Service.Toggle(r.Context(), st, uid)
				return err
			case "complete":
				return s.Service.MarkComplete(r.Context(), st, uid)
			default:
				return s.Service.MarkPending(r.Context(), st, uid)
			}
		}
	case "label":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req labelRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateRequest(req); err != nil {
			writeError(w, r, err)
			return
		}
		cmd = func(st *session.State) error {
			return s.Service.SetOverride(r.Context(), st, uid, strings.TrimSpace(req.Label))
		}
	default:
		writeError(w, r, errs.NewObjectNotFoundError("action", action))
		return
	}
	s.mutate(w, r, id, cmd)
}

// mutate runs cmd under the session lock and answers with the fresh view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, id string, cmd func(st *session.State) error) {
	var view model.RouteView
	err := s.Sessions.With(r.Context(), id, func(st *session.State) error {
		if err := cmd(st); err != nil {
			return err
		}
		view = session.View(st, "")
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
