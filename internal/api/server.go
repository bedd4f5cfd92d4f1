// Package api exposes the session commands over HTTP and streams session
// events over WebSocket.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"stoprouter/internal/auth"
	"stoprouter/internal/config"
	"stoprouter/internal/logger"
	"stoprouter/internal/metrics"
	"stoprouter/internal/session"
	"stoprouter/internal/store"
)

type Server struct {
	Sessions *Sessions
	Service  *session.Service
	Store    store.Repository
	Auth     *auth.Verifier
	Broker   EventBroker
	Logger   *slog.Logger
	Config   config.Config
}

// NewServer wires a server. broker may be nil, in which case an in-memory
// broker is used.
func NewServer(cfg config.Config, repo store.Repository, resolver session.PathResolver, broker EventBroker, log *slog.Logger) *Server {
	if broker == nil {
		broker = NewBroker()
	}
	if log == nil {
		log = logger.L()
	}
	svc := session.NewService(resolver, repo, broker, log)
	return &Server{
		Sessions: NewSessions(svc),
		Service:  svc,
		Store:    repo,
		Auth: auth.NewVerifier(auth.Options{
			Mode:        cfg.Auth.Mode,
			HMACSecret:  cfg.Auth.HMACSecret,
			JWKSURL:     cfg.Auth.JWKSURL,
			DriverClaim: cfg.Auth.DriverClaim,
		}),
		Broker: broker,
		Logger: log,
		Config: cfg,
	}
}

// Handler returns the routed mux wrapped in metrics and access logging.
func (s *Server) Handler() http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/session", s.SessionHandler)
	mux.HandleFunc("/v1/session/", s.SessionHandler) // optimize, stops/{uid}/..., compact, events

	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/debug/info", s.DebugJSON)

	return logger.AccessMiddleware(s.Logger)(metrics.Middleware(pathLabel, mux))
}

// pathLabel keeps metric cardinality bounded by hiding stop uids.
func pathLabel(r *http.Request) string {
	p := r.URL.Path
	if rest, ok := strings.CutPrefix(p, "/v1/session/stops/"); ok {
		if _, action, found := strings.Cut(rest, "/"); found {
			return "/v1/session/stops/:uid/" + action
		}
		return "/v1/session/stops/:uid"
	}
	return p
}
