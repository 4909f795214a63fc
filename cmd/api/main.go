package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/db"
	"github.com/devbounty/backend/internal/events"
	apphttp "github.com/devbounty/backend/internal/http"
	"github.com/devbounty/backend/internal/http/handlers"
	"github.com/devbounty/backend/internal/repositories"
	"github.com/devbounty/backend/internal/services"
	"github.com/devbounty/backend/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()
	defer log.Sync()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:     cfg.OTelEnabled,
		Stdout:      cfg.OTelStdout,
		ServiceName: "devbounty-api",
	})
	if err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdownTelemetry(sctx)
	}()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, db.MigrationsFS(cfg.MigrationsDir), log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := repositories.NewPgStore(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	metrics := telemetry.NewMetrics()
	authService := services.NewAuthService(store, cfg, log)
	bountyService := services.NewBountyService(store, publisher, metrics, cfg, log)
	commentService := services.NewCommentService(store, publisher, log)
	reviewService := services.NewReviewService(store, publisher, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(authService, log)
	bountyHandler := handlers.NewBountyHandler(bountyService, log)
	lifecycleHandler := handlers.NewLifecycleHandler(bountyService, log)
	disputeHandler := handlers.NewDisputeHandler(bountyService, log)
	commentHandler := handlers.NewCommentHandler(commentService, log)
	reviewHandler := handlers.NewReviewHandler(reviewService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Error("ws hub subscription failed, live updates disabled", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			msg := "internal error"
			if code < fiber.StatusInternalServerError {
				msg = err.Error()
			} else {
				log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{"error": msg})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authService,
		authHandler, userHandler, bountyHandler, lifecycleHandler, disputeHandler, commentHandler, reviewHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
