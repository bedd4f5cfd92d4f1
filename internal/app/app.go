// Package app builds the shared runtime (repository, road path resolver,
// Redis client) from configuration for the API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"stoprouter/internal/config"
	"stoprouter/internal/roadpath"
	"stoprouter/internal/store"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Repo     store.Backend
	Resolver *roadpath.Resolver
	// Redis is nil unless REDIS_URL is configured.
	Redis *redis.Client
}

// New opens the configured backends. Close releases them.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if cfg.Store.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.Redis = redis.NewClient(opt)
	}

	repo, err := store.Open(ctx, store.Options{
		Backend:     cfg.Store.Backend,
		Dir:         cfg.Store.Dir,
		DatabaseURL: cfg.Store.DatabaseURL,
		RedisURL:    cfg.Store.RedisURL,
		Logger:      logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Repo = repo

	var cache roadpath.Cache
	if a.Redis != nil {
		cache = roadpath.NewRedisCache(a.Redis, cfg.Routing.CacheTTL, logger)
	} else if cfg.Routing.CacheSize > 0 {
		cache = roadpath.NewMemoryCache(cfg.Routing.CacheSize)
	}
	a.Resolver, err = roadpath.New(roadpath.Options{
		BaseURL:        cfg.Routing.BaseURL,
		Profile:        cfg.Routing.Profile,
		Strategy:       cfg.Routing.Strategy,
		RequestTimeout: cfg.Routing.Timeout,
		ResolveTimeout: cfg.Routing.ResolveTimeout,
		Attempts:       cfg.Routing.Attempts,
		Backoff:        cfg.Routing.Backoff,
		SegmentRPS:     cfg.Routing.SegmentRPS,
	}, cache, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info("runtime_ready",
		"store", store.ResolveBackend(cfg.Store.Backend, cfg.Store.DatabaseURL),
		"routing", cfg.Routing.BaseURL,
		"strategy", cfg.Routing.Strategy,
		"redis", a.Redis != nil,
	)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Repo != nil {
		errs = append(errs, a.Repo.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
