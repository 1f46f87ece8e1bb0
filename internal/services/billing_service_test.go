package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/events"
	"github.com/promoserve/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBillableAmount(t *testing.T) {
	tests := []struct {
		name        string
		bid         string
		impressions int64
		cpm         string
		expected    string
	}{
		{"exact delivery", "100.00", 40000, "2.00", "80.00"},
		{"fractional value truncates down", "100.00", 40001, "2.00", "80.00"},
		{"never rounds up", "100.00", 40009, "2.00", "80.01"},
		{"capped at bid", "100.00", 500000, "2.00", "100.00"},
		{"full delivery", "100.00", 50000, "2.00", "100.00"},
		{"zero impressions", "100.00", 0, "2.00", "0.00"},
		{"sub-cent value", "100.00", 4, "2.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bid := decimal.RequireFromString(tt.bid)
			cpm := decimal.RequireFromString(tt.cpm)
			got := BillableAmount(bid, tt.impressions, cpm)
			if got.StringFixed(2) != tt.expected {
				t.Errorf("BillableAmount(%s, %d, %s) = %s, want %s",
					tt.bid, tt.impressions, tt.cpm, got.StringFixed(2), tt.expected)
			}
		})
	}
}

type fakeBillingStore struct {
	campaigns []models.PromoCampaign
	refunds   map[uuid.UUID]decimal.Decimal
}

func (f *fakeBillingStore) ListEndedOn(ctx context.Context, day time.Time) ([]models.PromoCampaign, error) {
	return f.campaigns, nil
}

func (f *fakeBillingStore) SetRefundAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if f.refunds == nil {
		f.refunds = make(map[uuid.UUID]decimal.Decimal)
	}
	f.refunds[id] = amount
	return nil
}

type fakeLinkStore struct {
	links map[uuid.UUID]*models.PromotedLink
}

func (f *fakeLinkStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PromotedLink, error) {
	return f.links[id], nil
}

func (f *fakeLinkStore) SetRemoteCampaignID(ctx context.Context, id uuid.UUID, remoteID int64) error {
	f.links[id].RemoteCampaignID = &remoteID
	return nil
}

type fakeAccountStore struct {
	account *models.Account
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return f.account, nil
}

type fakeTrafficSource struct {
	impressions  int64
	lastModified time.Time
}

func (f *fakeTrafficSource) BillableTraffic(ctx context.Context, campaignID uuid.UUID) ([]models.DailyTraffic, error) {
	// Split across two days to exercise the summing.
	half := f.impressions / 2
	return []models.DailyTraffic{
		{Day: time.Now().AddDate(0, 0, -2), Impressions: half},
		{Day: time.Now().AddDate(0, 0, -1), Impressions: f.impressions - half},
	}, nil
}

func (f *fakeTrafficSource) LastModified(ctx context.Context) (time.Time, error) {
	return f.lastModified, nil
}

type refundCall struct {
	transactionID int64
	campaignID    uuid.UUID
	amount        decimal.Decimal
}

type fakeGateway struct {
	calls []refundCall
	err   error
}

func (f *fakeGateway) Refund(ctx context.Context, account *models.Account, transactionID int64, campaignID uuid.UUID, amount decimal.Decimal) error {
	f.calls = append(f.calls, refundCall{transactionID, campaignID, amount})
	return f.err
}

type fakePromoLog struct {
	messages []string
}

func (f *fakePromoLog) Add(ctx context.Context, linkID uuid.UUID, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	return nil
}

func billingFixture(t *testing.T, campaigns []models.PromoCampaign, traffic *fakeTrafficSource, gateway *fakeGateway) (*BillingService, *fakeBillingStore, *fakePromoLog) {
	t.Helper()

	links := &fakeLinkStore{links: map[uuid.UUID]*models.PromotedLink{}}
	for _, c := range campaigns {
		links.links[c.LinkID] = &models.PromotedLink{
			ID:       c.LinkID,
			AuthorID: uuid.New(),
			Title:    "promoted thing",
		}
	}

	store := &fakeBillingStore{campaigns: campaigns}
	promoLog := &fakePromoLog{}
	cfg := &config.Config{Timezone: "UTC"}
	svc := NewBillingService(store, links,
		&fakeAccountStore{account: &models.Account{ID: uuid.New(), Name: "advertiser"}},
		traffic, gateway, promoLog, nopPublisher{}, cfg, zap.NewNop())
	return svc, store, promoLog
}

func endedCampaign(bid, cpm string) models.PromoCampaign {
	return models.PromoCampaign{
		ID:            uuid.New(),
		LinkID:        uuid.New(),
		Bid:           decimal.RequireFromString(bid),
		CPM:           decimal.RequireFromString(cpm),
		TransactionID: 42,
	}
}

func TestFinalizeRefundsShortfall(t *testing.T) {
	camp := endedCampaign("100.00", "2.00")
	traffic := &fakeTrafficSource{impressions: 40000, lastModified: time.Now()}
	gateway := &fakeGateway{}

	svc, store, _ := billingFixture(t, []models.PromoCampaign{camp}, traffic, gateway)
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))

	require.Len(t, gateway.calls, 1)
	require.Equal(t, "20.00", gateway.calls[0].amount.StringFixed(2))
	require.Equal(t, int64(42), gateway.calls[0].transactionID)

	refund, ok := store.refunds[camp.ID]
	require.True(t, ok, "campaign should be finalized")
	require.Equal(t, "20.00", refund.StringFixed(2))
}

func TestFinalizeTruncatesInPlatformsDisfavor(t *testing.T) {
	// 40,001 impressions at $2 CPM is worth $80.002; the extra fraction of
	// a cent belongs to the advertiser, so the refund stays $20.00.
	camp := endedCampaign("100.00", "2.00")
	traffic := &fakeTrafficSource{impressions: 40001, lastModified: time.Now()}
	gateway := &fakeGateway{}

	svc, store, _ := billingFixture(t, []models.PromoCampaign{camp}, traffic, gateway)
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))

	require.Len(t, gateway.calls, 1)
	require.Equal(t, "20.00", gateway.calls[0].amount.StringFixed(2))
	require.Equal(t, "20.00", store.refunds[camp.ID].StringFixed(2))
}

func TestFinalizeFullDeliveryNoRefund(t *testing.T) {
	camp := endedCampaign("100.00", "2.00")
	traffic := &fakeTrafficSource{impressions: 500000, lastModified: time.Now()}
	gateway := &fakeGateway{}

	svc, store, promoLog := billingFixture(t, []models.PromoCampaign{camp}, traffic, gateway)
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))

	require.Empty(t, gateway.calls, "over-delivery owes no refund")
	require.Equal(t, "0.00", store.refunds[camp.ID].StringFixed(2))
	require.Len(t, promoLog.messages, 1)
}

func TestFinalizeSkipsAlreadyFinalized(t *testing.T) {
	camp := endedCampaign("100.00", "2.00")
	done := decimal.RequireFromString("20.00")
	camp.RefundAmount = &done

	traffic := &fakeTrafficSource{impressions: 40000, lastModified: time.Now()}
	gateway := &fakeGateway{}

	svc, store, _ := billingFixture(t, []models.PromoCampaign{camp}, traffic, gateway)
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))

	require.Empty(t, gateway.calls, "finalized campaign must never be refunded again")
	require.Empty(t, store.refunds)
}

func TestFinalizeStaleTrafficAbortsPass(t *testing.T) {
	camp := endedCampaign("100.00", "2.00")
	traffic := &fakeTrafficSource{
		impressions:  40000,
		lastModified: time.Now().AddDate(0, 0, -3),
	}
	gateway := &fakeGateway{}

	svc, store, _ := billingFixture(t, []models.PromoCampaign{camp}, traffic, gateway)
	err := svc.FinalizeCompletedCampaigns(context.Background(), 1)

	var stale *StaleDataError
	require.ErrorAs(t, err, &stale)
	require.Empty(t, gateway.calls, "stale traffic must not trigger refunds")
	require.Empty(t, store.refunds)
}

func TestFinalizeGatewayFailureLeavesCampaignOpen(t *testing.T) {
	failing := endedCampaign("100.00", "2.00")
	healthy := endedCampaign("100.00", "2.00")
	traffic := &fakeTrafficSource{impressions: 40000, lastModified: time.Now()}
	gateway := &fakeGateway{err: &GatewayError{StatusCode: 402, Detail: "card declined"}}

	svc, store, promoLog := billingFixture(t, []models.PromoCampaign{failing, healthy}, traffic, gateway)
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))

	// Both campaigns were attempted, neither finalized.
	require.Len(t, gateway.calls, 2, "a gateway failure must not abort the batch")
	require.Empty(t, store.refunds)
	require.Len(t, promoLog.messages, 2)
	require.Contains(t, promoLog.messages[0], "refund failed")

	// Gateway recovers; the next pass settles both.
	gateway.err = nil
	gateway.calls = nil
	require.NoError(t, svc.FinalizeCompletedCampaigns(context.Background(), 1))
	require.Len(t, gateway.calls, 2)
	require.Len(t, store.refunds, 2)
}
