package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promoserve/backend/internal/adserver"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/db"
	"github.com/promoserve/backend/internal/events"
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

	// Repos
	accountRepo := repositories.NewAccountRepo(pool)
	linkRepo := repositories.NewLinkRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	promoLogRepo := repositories.NewPromotionLogRepo(pool)
	trafficRepo := repositories.NewTrafficRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	adClient := adserver.NewClient(cfg.AdserverAPIURL, cfg.AdserverAPIKey, log)
	refundClient := services.NewRefundClient(cfg.BillingGatewayURL, log)
	syncService := services.NewSyncService(adClient, linkRepo, campaignRepo,
		accountRepo, promoLogRepo, publisher, cfg, log)
	billingService := services.NewBillingService(campaignRepo, linkRepo,
		accountRepo, trafficRepo, refundClient, promoLogRepo, publisher, cfg, log)

	log.Info("worker started",
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval))

	syncTicker := time.NewTicker(cfg.SyncInterval)
	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	defer syncTicker.Stop()
	defer reconcileTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-syncTicker.C:
			runPromotionSync(ctx, campaignRepo, linkRepo, syncService, cfg, log)
		case <-reconcileTicker.C:
			runReconciliation(ctx, billingService, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runPromotionSync pushes every eligible (link, campaign) pair to the
// adserver. Pairs fail independently: a bad campaign is logged and the pass
// keeps going, and the idempotent create-or-update steps make the next tick
// the retry mechanism.
func runPromotionSync(ctx context.Context, campaignRepo *repositories.CampaignRepo, linkRepo *repositories.LinkRepo, syncService *services.SyncService, cfg *config.Config, log *zap.Logger) {
	today := time.Now().In(cfg.Location())
	campaigns, err := campaignRepo.ListEligibleForSync(ctx, today)
	if err != nil {
		log.Error("failed to list eligible campaigns", zap.Error(err))
		return
	}

	for i := range campaigns {
		campaign := &campaigns[i]
		link, err := linkRepo.GetByID(ctx, campaign.LinkID)
		if err != nil {
			log.Error("failed to load link for campaign",
				zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
			continue
		}
		if err := syncService.Sync(ctx, link, campaign); err != nil {
			log.Error("sync failed",
				zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		}
	}
}

func runReconciliation(ctx context.Context, billingService *services.BillingService, cfg *config.Config, log *zap.Logger) {
	err := billingService.FinalizeCompletedCampaigns(ctx, cfg.ReconcileDaysAgo)
	if err == nil {
		return
	}

	var stale *services.StaleDataError
	if errors.As(err, &stale) {
		// Traffic has not settled yet; the next tick retries.
		log.Warn("reconciliation postponed", zap.Error(err))
		return
	}
	log.Error("reconciliation failed", zap.Error(err))
}
