package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/promoserve/backend/internal/adserver"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/db"
	"github.com/promoserve/backend/internal/events"
	apphttp "github.com/promoserve/backend/internal/http"
	"github.com/promoserve/backend/internal/http/handlers"
	"github.com/promoserve/backend/internal/repositories"
	"github.com/promoserve/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	accountRepo := repositories.NewAccountRepo(pool)
	linkRepo := repositories.NewLinkRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	promoLogRepo := repositories.NewPromotionLogRepo(pool)

	// Adserver clients
	adClient := adserver.NewClient(cfg.AdserverAPIURL, cfg.AdserverAPIKey, log)
	decisionClient := adserver.NewDecisionClient(cfg.AdserverEngineURL,
		cfg.NetworkID, cfg.SiteID, cfg.AdTypeID, cfg.DecisionTimeout, log)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	syncService := services.NewSyncService(adClient, linkRepo, campaignRepo,
		accountRepo, promoLogRepo, publisher, cfg, log)
	promoService := services.NewPromoService(campaignRepo, decisionClient, cfg, log)

	// Handlers
	promoHandler := handlers.NewPromoHandler(promoService, cfg, log)
	internalHandler := handlers.NewInternalHandler(syncService, linkRepo,
		campaignRepo, promoLogRepo, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, log, rdb, promoHandler, internalHandler)

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
