package services

import (
	"context"
	"testing"
	"time"

	"github.com/promoserve/backend/internal/adserver"
	"github.com/promoserve/backend/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLiveSource struct {
	names []string
}

func (f *fakeLiveSource) LiveCommunityNames(ctx context.Context, day time.Time) ([]string, error) {
	return f.names, nil
}

type fakeDecider struct {
	calls  [][]string
	result *adserver.DecisionResult
	err    error
}

func (f *fakeDecider) Request(ctx context.Context, keywords []string) (*adserver.DecisionResult, error) {
	f.calls = append(f.calls, keywords)
	return f.result, f.err
}

func promoFixture(names []string, decider *fakeDecider) *PromoService {
	cfg := &config.Config{Timezone: "UTC"}
	return NewPromoService(&fakeLiveSource{names: names}, decider, cfg, zap.NewNop())
}

func TestGetSinglePromotionDedupesKeywords(t *testing.T) {
	decider := &fakeDecider{result: &adserver.DecisionResult{LinkID: "l1"}}
	svc := promoFixture([]string{"gadgets", "gadgets", "", "books"}, decider)

	got, err := svc.GetSinglePromotion(context.Background(), "u1", "")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, decider.calls, 1)
	require.Equal(t, []string{"gadgets", "frontpage", "books"}, decider.calls[0])
}

func TestGetSinglePromotionSiteScoped(t *testing.T) {
	decider := &fakeDecider{result: &adserver.DecisionResult{LinkID: "l1"}}
	svc := promoFixture([]string{"gadgets", "books"}, decider)

	got, err := svc.GetSinglePromotion(context.Background(), "u1", "books")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, [][]string{{"books"}}, decider.calls)
}

func TestGetSinglePromotionSiteWithoutLiveCampaign(t *testing.T) {
	decider := &fakeDecider{}
	svc := promoFixture([]string{"gadgets"}, decider)

	got, err := svc.GetSinglePromotion(context.Background(), "u1", "books")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, decider.calls, "no live campaign for the site, no engine round-trip")
}

func TestGetSinglePromotionNoLiveCampaigns(t *testing.T) {
	decider := &fakeDecider{}
	svc := promoFixture(nil, decider)

	got, err := svc.GetSinglePromotion(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, decider.calls)
}

func TestGetSinglePromotionNoFillPassesThrough(t *testing.T) {
	decider := &fakeDecider{result: nil}
	svc := promoFixture([]string{"gadgets"}, decider)

	got, err := svc.GetSinglePromotion(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Nil(t, got)
}
