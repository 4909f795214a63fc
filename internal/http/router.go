package http

import (
	"time"

	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/http/handlers"
	"github.com/devbounty/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	actors middleware.ActorResolver,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	bountyHandler *handlers.BountyHandler,
	lifecycleHandler *handlers.LifecycleHandler,
	disputeHandler *handlers.DisputeHandler,
	commentHandler *handlers.CommentHandler,
	reviewHandler *handlers.ReviewHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	limit := middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute)

	// Auth (public)
	api.Post("/auth/register", limit, authHandler.Register)
	api.Post("/auth/login", limit, authHandler.Login)

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/categories", metaHandler.GetCategories)
	api.Get("/meta/statuses", metaHandler.GetStatuses)

	// Protected endpoints
	protected := api.Group("",
		middleware.AuthMiddleware(cfg, log),
		middleware.ActorMiddleware(actors, log),
		limit,
	)

	// User
	protected.Get("/me", userHandler.GetMe)

	// Lifecycle
	protected.Post("/bounties/claim", lifecycleHandler.Claim)
	protected.Post("/bounties/complete", lifecycleHandler.Complete)
	protected.Post("/bounties/approve", lifecycleHandler.Approve)
	protected.Post("/bounties/dispute", lifecycleHandler.Dispute)
	protected.Post("/bounties/resolve-dispute", lifecycleHandler.ResolveDispute)

	// Bounties
	protected.Post("/bounties", bountyHandler.CreateBounty)
	protected.Get("/bounties", bountyHandler.ListBounties)
	protected.Get("/bounties/:id", bountyHandler.GetBounty)
	protected.Get("/bounties/:id/events", bountyHandler.GetBountyEvents)
	protected.Get("/bounties/:id/payment", bountyHandler.GetPayment)

	// Comments
	protected.Get("/bounties/:id/comments", commentHandler.ListComments)
	protected.Post("/bounties/:id/comments", commentHandler.AddComment)

	// Reviews
	protected.Get("/bounties/:id/reviews", reviewHandler.ListBountyReviews)
	protected.Post("/bounties/:id/reviews", reviewHandler.AddReview)
	protected.Get("/users/:id/reviews", reviewHandler.ListUserReviews)

	// Disputes (admin)
	admin := protected.Group("/disputes", middleware.AdminMiddleware())
	admin.Get("", disputeHandler.ListDisputes)
	admin.Post("/:id/review", disputeHandler.MarkInReview)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
