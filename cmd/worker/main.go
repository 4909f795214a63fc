package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/db"
	"github.com/devbounty/backend/internal/events"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/services"
	"github.com/devbounty/backend/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()
	defer log.Sync()
	cfg.Validate(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:     cfg.OTelEnabled,
		Stdout:      cfg.OTelStdout,
		ServiceName: "devbounty-worker",
	})
	if err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(sctx)
	}()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := repositories.NewPgStore(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	bountyService := services.NewBountyService(store, publisher, telemetry.NewMetrics(), cfg, log)

	log.Info("worker started",
		zap.Duration("expiry_sweep_interval", cfg.ExpirySweepInterval),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		every(ctx, cfg.ExpirySweepInterval, func() {
			if _, err := bountyService.SweepExpired(ctx); err != nil {
				log.Error("expiry sweep failed", zap.Error(err))
			}
		})
		return nil
	})
	g.Go(func() error {
		every(ctx, cfg.ReconcileInterval, func() {
			if _, err := bountyService.ReconcilePayments(ctx); err != nil {
				log.Error("payment reconciliation failed", zap.Error(err))
			}
		})
		return nil
	})
	_ = g.Wait()
	log.Info("shutting down worker")
}

// every runs job once immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, job func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job()
	for {
		select {
		case <-ticker.C:
			job()
		case <-ctx.Done():
			return
		}
	}
}
