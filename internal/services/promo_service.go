package services

import (
	"context"
	"time"

	"github.com/promoserve/backend/internal/adserver"
	"github.com/promoserve/backend/internal/config"
	"go.uber.org/zap"
)

type LiveCampaignSource interface {
	LiveCommunityNames(ctx context.Context, day time.Time) ([]string, error)
}

type Decider interface {
	Request(ctx context.Context, keywords []string) (*adserver.DecisionResult, error)
}

// PromoService is the content-serving decision path: figure out which
// placements have live promotions, ask the adserver engine for a decision,
// and hand back a renderable promotion or nothing.
type PromoService struct {
	live    LiveCampaignSource
	decider Decider
	cfg     *config.Config
	log     *zap.Logger
}

func NewPromoService(live LiveCampaignSource, decider Decider, cfg *config.Config, log *zap.Logger) *PromoService {
	return &PromoService{live: live, decider: decider, cfg: cfg, log: log}
}

// GetSinglePromotion returns one promotion eligible for the given site, or
// nil when there is nothing to show — including when the decision request
// timed out, which callers must not treat as a failure.
func (s *PromoService) GetSinglePromotion(ctx context.Context, userID, site string) (*adserver.DecisionResult, error) {
	today := time.Now().In(s.cfg.Location())
	names, err := s.live.LiveCommunityNames(ctx, today)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(names))
	var keywords []string
	for _, name := range names {
		kw := KeywordForCommunity(name)
		if !seen[kw] {
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}

	// A site-scoped request only asks for that site's keyword; no live
	// campaign for it means nothing to show, with no engine round-trip.
	if site != "" {
		kw := KeywordForCommunity(site)
		if !seen[kw] {
			return nil, nil
		}
		keywords = []string{kw}
	}

	result, err := s.decider.Request(ctx, keywords)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	s.log.Debug("promotion decided",
		zap.String("user_id", userID),
		zap.String("site", site),
		zap.String("link_id", result.LinkID),
		zap.String("campaign_id", result.CampaignID))
	return result, nil
}
