package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/promoserve/backend/internal/http/handlers"
	"github.com/promoserve/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	log *zap.Logger,
	rdb *redis.Client,
	promoHandler *handlers.PromoHandler,
	internalHandler *handlers.InternalHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Decision path sits on page render; rate-limit it per IP.
	api.Get("/promo", middleware.RateLimitMiddleware(rdb, 300, time.Minute), promoHandler.GetPromotion)
	api.Get("/promo/config", promoHandler.GetPromoConfig)

	// Host-application triggers and operator tooling. Reachable only on the
	// internal network; the edge proxy never routes /internal.
	internal := app.Group("/internal")
	internal.Post("/links/:id/void", internalHandler.VoidLink)
	internal.Post("/campaigns/:id/void", internalHandler.VoidCampaign)
	internal.Post("/campaigns/:id/sync", internalHandler.SyncCampaign)
	internal.Get("/links/:id/log", internalHandler.GetPromotionLog)
}
