package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/audit"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/quota"
	"github.com/gosuda/taskhub/internal/seed"
	"github.com/gosuda/taskhub/internal/server"
	"github.com/gosuda/taskhub/internal/service"
	redisstore "github.com/gosuda/taskhub/internal/store/redis"
	"github.com/gosuda/taskhub/internal/tenancy"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, pg, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Audit entries land in the store and, when Redis is configured, are
	// also published for downstream consumers.
	sinks := []audit.Sink{store.Audit()}
	if cfg.Redis.Addr != "" {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		sinks = append(sinks, pubsub)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("publishing audit entries to redis")
	}
	trail := audit.New(audit.Config{
		QueueSize:    cfg.Audit.QueueSize,
		Workers:      cfg.Audit.Workers,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, m, sinks...)

	creds := newCredentials(cfg)
	if pg == nil {
		// A fresh in-memory store has nobody to log in as.
		if _, err := seed.Run(ctx, store, creds); err != nil {
			return err
		}
	}

	tenants := tenancy.NewRegistry(store, creds, trail)
	guard := quota.NewGuard(m)
	srv := server.New(ctx, cfg, store, server.Services{
		Auth:     auth.NewService(store, tenants, creds, trail, m),
		Tenants:  tenants,
		Projects: service.NewProjects(store, guard, trail),
		Tasks:    service.NewTasks(store, trail),
		Users:    service.NewUsers(store, guard, creds, trail),
		AuditLog: service.NewAuditLog(store),
	}, m, reg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	return awaitShutdown(ctx, errCh, cfg.Server.ShutdownTimeout, srv, trail)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type drainer interface {
	Close(ctx context.Context) error
}

// awaitShutdown blocks until ctx ends or the listener fails, then stops srv
// and drains trail on either path. A listener failure is returned.
func awaitShutdown(ctx context.Context, serveErr <-chan error, timeout time.Duration, srv shutdowner, trail drainer) error {
	var failed error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case failed = <-serveErr:
		log.Error().Err(failed).Msg("http server stopped, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		failed = errors.Join(failed, err)
	}
	if err := trail.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit trail did not drain before shutdown")
	}

	if failed != nil {
		return failed
	}
	log.Info().Msg("stopped")
	return nil
}
