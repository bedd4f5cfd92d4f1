package api

import (
	"net/http"
	"time"

	"stoprouter/internal/buildinfo"
	"stoprouter/internal/store"
)

// DebugJSON reports build and effective configuration. Secrets are reduced
// to presence flags.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Config
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"port":              c.Server.Port,
			"storeBackend":      store.ResolveBackend(c.Store.Backend, c.Store.DatabaseURL),
			"routingBaseUrl":    c.Routing.BaseURL,
			"routingProfile":    c.Routing.Profile,
			"routingStrategy":   c.Routing.Strategy,
			"routingAttempts":   c.Routing.Attempts,
			"routingTimeout":    c.Routing.Timeout.String(),
			"authMode":          c.Auth.Mode,
			"hasDatabaseUrl":    c.Store.DatabaseURL != "",
			"hasRedisUrl":       c.Store.RedisURL != "",
			"hasAuthHmacSecret": c.Auth.HMACSecret != "",
		},
	})
}
