package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stoprouter/internal/api"
	"stoprouter/internal/app"
	"stoprouter/internal/buildinfo"
	"stoprouter/internal/config"
	"stoprouter/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.L().Error("config_invalid", "err", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		logger.L().Error("server_error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log := logger.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	var broker api.EventBroker
	if rt.Redis != nil {
		rb := api.NewRedisBroker(rt.Redis, log)
		defer rb.Close()
		broker = rb
	}
	srvDeps := api.NewServer(cfg, rt.Repo, rt.Resolver, broker, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srvDeps.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("api_listening", "addr", srv.Addr, "version", buildinfo.Version, "commit", buildinfo.Commit)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("api_stopped")
	return nil
}
