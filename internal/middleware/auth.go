package middleware

import (
	"context"
	"strings"

	"github.com/devbounty/backend/internal/auth"
	"github.com/devbounty/backend/internal/config"
	"github.com/devbounty/backend/internal/models"
	"github.com/devbounty/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxUserID = "user_id"
	CtxActor  = "actor"
)

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg, "request_id": GetRequestID(c)})
}

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing authorization header")
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return unauthorized(c, "invalid authorization format")
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(CtxUserID, claims.UserID)
		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*models.Actor, error)
}

// ActorMiddleware loads the caller's identity and roles once per request.
// Must run after AuthMiddleware.
func ActorMiddleware(resolver ActorResolver, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := resolver.ResolveActor(c.Context(), GetUserID(c))
		if err != nil {
			if services.KindOf(err) == services.KindUnauthenticated {
				return unauthorized(c, services.Message(err))
			}
			log.Error("resolve actor failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "request_id": GetRequestID(c)})
		}
		c.Locals(CtxActor, *actor)
		return c.Next()
	}
}

func GetActor(c *fiber.Ctx) models.Actor {
	a, _ := c.Locals(CtxActor).(models.Actor)
	return a
}

// AdminMiddleware requires an admin actor.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetActor(c).IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required", "request_id": GetRequestID(c)})
		}
		return c.Next()
	}
}
