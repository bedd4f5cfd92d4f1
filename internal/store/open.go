package store

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultDir holds file and badger data when no directory is configured.
const DefaultDir = "data"

// Options selects and configures a backend.
type Options struct {
	// Backend is one of memory, file, badger, redis, postgres. Empty is
	// resolved by ResolveBackend.
	Backend string
	// Dir defaults to DefaultDir.
	Dir         string
	DatabaseURL string
	RedisURL    string
	Logger      *slog.Logger
}

// Backend is a Repository that may hold resources.
type Backend interface {
	Repository
	Close() error
}

type nopCloser struct{ Repository }

func (nopCloser) Close() error { return nil }

// ResolveBackend names the backend Open will use. An empty backend means
// postgres when a database URL is configured and the file store otherwise,
// so sessions survive restarts without any setup.
func ResolveBackend(backend, databaseURL string) string {
	if backend != "" {
		return backend
	}
	if databaseURL != "" {
		return "postgres"
	}
	return "file"
}

// Open builds the configured repository.
func Open(ctx context.Context, o Options) (Backend, error) {
	backend := ResolveBackend(o.Backend, o.DatabaseURL)
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	switch backend {
	case "memory":
		return nopCloser{NewMemory()}, nil
	case "file":
		f, err := NewFile(o.Dir)
		if err != nil {
			return nil, err
		}
		return nopCloser{f}, nil
	case "badger":
		b, err := NewBadger(BadgerConfig{Path: o.Dir, SyncWrites: true, Logger: o.Logger})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		if o.RedisURL == "" {
			return nil, fmt.Errorf("store backend redis requires REDIS_URL")
		}
		r, err := NewRedisFromURL(ctx, o.RedisURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "postgres":
		if o.DatabaseURL == "" {
			return nil, fmt.Errorf("store backend postgres requires DATABASE_URL")
		}
		p, err := NewPostgres(o.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := p.EnsureSchema(ctx); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
