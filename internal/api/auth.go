package api

import (
	"errors"
	"net/http"
	"strings"

	"stoprouter/internal/auth"
)

var errUnauthenticated = errors.New("missing or invalid credentials")

// getPrincipal resolves the calling driver.
//   - Authorization: Bearer <token> (or ?token= for WebSocket clients) is
//     checked with the configured verifier.
//   - In dev mode X-Driver-Id is accepted, defaulting to "demo".
func (s *Server) getPrincipal(r *http.Request) (auth.Principal, error) {
	tok := ""
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		tok = strings.TrimSpace(authz[len("Bearer "):])
	} else if q := r.URL.Query().Get("token"); q != "" {
		tok = q
	}
	if tok != "" {
		p, err := s.Auth.Verify(tok)
		if err != nil {
			return auth.Principal{}, errUnauthenticated
		}
		return p, nil
	}
	if s.Auth.Mode != "dev" {
		return auth.Principal{}, errUnauthenticated
	}
	driverID := strings.TrimSpace(r.Header.Get("X-Driver-Id"))
	if driverID == "" {
		driverID = "demo"
	}
	return auth.Principal{DriverID: driverID, Role: "driver"}, nil
}
