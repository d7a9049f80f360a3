// Command api runs the eventra HTTP server: the /api/auth account and
// session flows, the /api/events planner CRUD, and the operational
// /healthz and /metrics endpoints, all configured from the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra"
	"github.com/eventrahq/eventra/events"
	"github.com/eventrahq/eventra/httpapi"
	"github.com/eventrahq/eventra/metrics/export/prometheus"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// A local .env is a development convenience; deployments set the
	// variables directly and no file is present.
	_ = godotenv.Load()

	cfg, err := eventra.FromEnv()
	if err != nil {
		return err
	}
	srvCfg, err := eventra.ServerFromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	core, err := eventra.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithOTPSender(eventra.LogOTPSender{}).
		Build()
	if err != nil {
		return err
	}
	defer core.Close()
	log.Warn("one-time codes go to the process log; wire a delivery provider before exposing signup")

	exporter := prometheus.NewPrometheusExporter(core)
	api := httpapi.NewServer(core, events.NewStore(rdb, cfg.Redis.KeyPrefix),
		httpapi.WithLogger(log),
		httpapi.WithMetricsHandler(exporter.Handler()),
	)

	server := &http.Server{
		Addr:         srvCfg.Addr,
		Handler:      api.Router(),
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
		IdleTimeout:  srvCfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srvCfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
