package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/events"
	"github.com/promoserve/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StaleDataError aborts a reconciliation pass whose traffic data has not yet
// settled through the cutoff date. Billing on incomplete counts is worse
// than billing a day late.
type StaleDataError struct {
	Cutoff       time.Time
	LastModified time.Time
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("can't finalize campaigns ended on %s: most recent traffic data is from %s",
		e.Cutoff.Format("2006-01-02"), e.LastModified.Format("2006-01-02 15:04:05"))
}

type CampaignBillingStore interface {
	ListEndedOn(ctx context.Context, day time.Time) ([]models.PromoCampaign, error)
	SetRefundAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

type TrafficSource interface {
	BillableTraffic(ctx context.Context, campaignID uuid.UUID) ([]models.DailyTraffic, error)
	LastModified(ctx context.Context) (time.Time, error)
}

type RefundGateway interface {
	Refund(ctx context.Context, account *models.Account, transactionID int64, campaignID uuid.UUID, amount decimal.Decimal) error
}

// BillingService settles campaigns at the end of their delivery window:
// bill for what our traffic counts say was delivered, refund the rest.
// It runs on its own schedule, decoupled from sync, because traffic data
// lags real-time delivery.
type BillingService struct {
	campaigns CampaignBillingStore
	links     LinkStore
	accounts  AccountStore
	traffic   TrafficSource
	gateway   RefundGateway
	promoLog  PromotionLog
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewBillingService(
	campaigns CampaignBillingStore,
	links LinkStore,
	accounts AccountStore,
	traffic TrafficSource,
	gateway RefundGateway,
	promoLog PromotionLog,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		campaigns: campaigns,
		links:     links,
		accounts:  accounts,
		traffic:   traffic,
		gateway:   gateway,
		promoLog:  promoLog,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// BillableAmount is min(bid, impressions/1000 × cpm), truncated to whole
// cents. Truncation, never rounding up: the platform must not claim more
// than it delivered.
func BillableAmount(bid decimal.Decimal, impressions int64, cpm decimal.Decimal) decimal.Decimal {
	value := decimal.NewFromInt(impressions).Mul(cpm).Div(decimal.NewFromInt(1000))
	billable := value
	if bid.LessThan(value) {
		billable = bid
	}
	return billable.Truncate(2)
}

// FinalizeCompletedCampaigns settles every campaign whose delivery window
// ended daysAgo days before now (in the configured timezone, date only).
// Campaigns that already carry a refund amount are terminal and are never
// touched again; a gateway failure leaves its campaign open for the next
// run without affecting the rest of the batch.
func (s *BillingService) FinalizeCompletedCampaigns(ctx context.Context, daysAgo int) error {
	loc := s.cfg.Location()
	now := time.Now().In(loc)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -daysAgo)

	lastModified, err := s.traffic.LastModified(ctx)
	if err != nil {
		return fmt.Errorf("reading traffic watermark: %w", err)
	}
	if lastModified.Before(cutoff) {
		return &StaleDataError{Cutoff: cutoff, LastModified: lastModified}
	}

	campaigns, err := s.campaigns.ListEndedOn(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing ended campaigns: %w", err)
	}

	for i := range campaigns {
		camp := &campaigns[i]
		if camp.Finalized() {
			continue
		}
		s.finalizeCampaign(ctx, camp)
	}
	return nil
}

func (s *BillingService) finalizeCampaign(ctx context.Context, camp *models.PromoCampaign) {
	link, err := s.links.GetByID(ctx, camp.LinkID)
	if err != nil {
		s.log.Error("loading link for ended campaign",
			zap.String("campaign_id", camp.ID.String()), zap.Error(err))
		return
	}

	impressions, err := s.billableImpressions(ctx, camp.ID)
	if err != nil {
		s.log.Error("reading billable traffic",
			zap.String("campaign_id", camp.ID.String()), zap.Error(err))
		return
	}

	billable := BillableAmount(camp.Bid, impressions, camp.CPM)
	refund := decimal.Zero

	if billable.GreaterThanOrEqual(camp.Bid) {
		msg := fmt.Sprintf("campaign %s completed with $%s billable (%d impressions @ $%s)",
			camp.ID, billable.StringFixed(2), impressions, camp.CPM)
		if err := s.promoLog.Add(ctx, link.ID, msg); err != nil {
			s.log.Warn("failed to write promotion log", zap.Error(err))
		}
	} else {
		refund = camp.Bid.Sub(billable)

		account, err := s.accounts.GetByID(ctx, link.AuthorID)
		if err != nil {
			s.log.Error("loading account for refund",
				zap.String("campaign_id", camp.ID.String()), zap.Error(err))
			return
		}

		if err := s.gateway.Refund(ctx, account, camp.TransactionID, camp.ID, refund); err != nil {
			msg := fmt.Sprintf("campaign %s $%s refund failed", camp.ID, refund.StringFixed(2))
			_ = s.promoLog.Add(ctx, link.ID, msg)

			var gerr *GatewayError
			if errors.As(err, &gerr) {
				s.log.Warn("refund declined by gateway",
					zap.String("campaign_id", camp.ID.String()),
					zap.String("amount", refund.StringFixed(2)),
					zap.String("detail", gerr.Detail))
			} else {
				s.log.Error("refund call failed",
					zap.String("campaign_id", camp.ID.String()), zap.Error(err))
			}
			// Not finalized — the next pass retries this campaign.
			return
		}

		msg := fmt.Sprintf("campaign %s completed with $%s billable (%d impressions @ $%s), $%s refunded",
			camp.ID, billable.StringFixed(2), impressions, camp.CPM, refund.StringFixed(2))
		if err := s.promoLog.Add(ctx, link.ID, msg); err != nil {
			s.log.Warn("failed to write promotion log", zap.Error(err))
		}

		_ = s.publisher.Publish(ctx, "events:billing", events.Event{
			Type: events.EventRefundIssued,
			Payload: map[string]any{
				"campaign_id": camp.ID.String(),
				"amount":      refund.StringFixed(2),
			},
		})
	}

	// The stored refund amount (zero included) is the terminal marker.
	if err := s.campaigns.SetRefundAmount(ctx, camp.ID, refund); err != nil {
		s.log.Error("storing refund amount",
			zap.String("campaign_id", camp.ID.String()), zap.Error(err))
		return
	}
	camp.RefundAmount = &refund

	_ = s.publisher.Publish(ctx, "events:billing", events.Event{
		Type: events.EventCampaignFinalized,
		Payload: map[string]any{
			"campaign_id": camp.ID.String(),
			"billable":    billable.StringFixed(2),
			"refund":      refund.StringFixed(2),
			"impressions": impressions,
		},
	})

	s.log.Info("campaign finalized",
		zap.String("campaign_id", camp.ID.String()),
		zap.Int64("impressions", impressions),
		zap.String("billable", billable.StringFixed(2)),
		zap.String("refund", refund.StringFixed(2)))
}

func (s *BillingService) billableImpressions(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	traffic, err := s.traffic.BillableTraffic(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, day := range traffic {
		total += day.Impressions
	}
	return total, nil
}
