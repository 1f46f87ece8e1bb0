package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promoserve/backend/internal/adserver"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/events"
	"github.com/promoserve/backend/internal/models"
	"go.uber.org/zap"
)

// impressionBump is added to the impression cap we hand the adserver. Its
// delivery counter can lag our own traffic counts, and an under-count must
// never shut a flight off early — we bill from our counts, not theirs.
const impressionBump = 500

// defaultPlacementKeyword targets the default/frontpage placement when a
// campaign has no community of its own.
const defaultPlacementKeyword = "frontpage"

// KeywordForCommunity maps a community name onto the adserver keyword,
// falling back to the default placement for untargeted campaigns.
func KeywordForCommunity(name string) string {
	if name == "" {
		return defaultPlacementKeyword
	}
	return name
}

func dateToAdserver(t time.Time) string {
	return t.Format("01/02/2006")
}

// AdServerAPI is the slice of the management client the sync engine uses.
type AdServerAPI interface {
	GetCampaign(ctx context.Context, id int64) (*adserver.RemoteCampaign, error)
	CreateCampaign(ctx context.Context, req adserver.CreateCampaignRequest) (*adserver.RemoteCampaign, error)
	UpdateCampaign(ctx context.Context, id int64, req adserver.UpdateCampaignRequest) (*adserver.RemoteCampaign, error)
	GetCreative(ctx context.Context, id int64) (*adserver.RemoteCreative, error)
	CreateCreative(ctx context.Context, req adserver.CreateCreativeRequest) (*adserver.RemoteCreative, error)
	UpdateCreative(ctx context.Context, id int64, req adserver.UpdateCreativeRequest) (*adserver.RemoteCreative, error)
	GetFlight(ctx context.Context, id int64) (*adserver.RemoteFlight, error)
	CreateFlight(ctx context.Context, req adserver.CreateFlightRequest) (*adserver.RemoteFlight, error)
	UpdateFlight(ctx context.Context, id int64, req adserver.UpdateFlightRequest) (*adserver.RemoteFlight, error)
	GetCreativeFlightMap(ctx context.Context, flightID, id int64) (*adserver.RemoteCreativeFlightMap, error)
	CreateCreativeFlightMap(ctx context.Context, flightID int64, req adserver.CreateCreativeFlightMapRequest) (*adserver.RemoteCreativeFlightMap, error)
	UpdateCreativeFlightMap(ctx context.Context, flightID, id int64, req adserver.UpdateCreativeFlightMapRequest) (*adserver.RemoteCreativeFlightMap, error)
}

type LinkStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PromotedLink, error)
	SetRemoteCampaignID(ctx context.Context, id uuid.UUID, remoteID int64) error
}

type CampaignRefStore interface {
	SetRemoteCreativeID(ctx context.Context, id uuid.UUID, remoteID int64) error
	SetRemoteFlightID(ctx context.Context, id uuid.UUID, remoteID int64) error
	SetRemoteCfMapID(ctx context.Context, id uuid.UUID, remoteID int64) error
}

type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type PromotionLog interface {
	Add(ctx context.Context, linkID uuid.UUID, message string) error
}

// SyncService mirrors a (link, campaign) pair into the adserver's four-level
// hierarchy: Campaign → Creative → Flight → CreativeFlightMap, in that order.
// Each step creates the remote object exactly once — the stored remote ref
// decides create vs update — and re-sends the full field set on every run,
// so re-running after a partial failure is always safe.
//
// Concurrent syncs of the same pair are not safe (two "no ref yet" reads
// would both create); callers are expected to serialize per pair.
type SyncService struct {
	api       AdServerAPI
	links     LinkStore
	campaigns CampaignRefStore
	accounts  AccountStore
	promoLog  PromotionLog
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewSyncService(
	api AdServerAPI,
	links LinkStore,
	campaigns CampaignRefStore,
	accounts AccountStore,
	promoLog PromotionLog,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		api:       api,
		links:     links,
		campaigns: campaigns,
		accounts:  accounts,
		promoLog:  promoLog,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Sync runs all four steps for the pair and records the resulting remote
// identities in the promotion log. The first failing step aborts the rest;
// the caller's next scheduled run is the retry mechanism.
func (s *SyncService) Sync(ctx context.Context, link *models.PromotedLink, campaign *models.PromoCampaign) error {
	campaignID, err := s.syncCampaign(ctx, link, true)
	if err != nil {
		return fmt.Errorf("campaign step for link %s: %w", link.ID, err)
	}

	creativeID, err := s.syncCreative(ctx, link, campaign)
	if err != nil {
		return fmt.Errorf("creative step for campaign %s: %w", campaign.ID, err)
	}

	flightID, err := s.syncFlight(ctx, link, campaign, true)
	if err != nil {
		return fmt.Errorf("flight step for campaign %s: %w", campaign.ID, err)
	}

	cfmapID, err := s.syncCreativeFlightMap(ctx, link, campaign)
	if err != nil {
		return fmt.Errorf("cfmap step for campaign %s: %w", campaign.ID, err)
	}

	msg := fmt.Sprintf("synced to adserver: campaign=%d creative=%d flight=%d cfmap=%d",
		campaignID, creativeID, flightID, cfmapID)
	if err := s.promoLog.Add(ctx, link.ID, msg); err != nil {
		s.log.Warn("failed to write promotion log", zap.Error(err))
	}

	_ = s.publisher.Publish(ctx, "events:promo", events.Event{
		Type: events.EventCampaignSynced,
		Payload: map[string]any{
			"link_id":         link.ID.String(),
			"campaign_id":     campaign.ID.String(),
			"remote_campaign": campaignID,
			"remote_creative": creativeID,
			"remote_flight":   flightID,
			"remote_cfmap":    cfmapID,
		},
	})

	s.log.Info("pair synced",
		zap.String("link_id", link.ID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Int64("remote_campaign", campaignID),
		zap.Int64("remote_flight", flightID),
	)
	return nil
}

// DeactivateLink re-runs only the campaign step with active=false. The
// downstream creative/flight/map stay untouched; an inactive campaign stops
// the whole subtree serving.
func (s *SyncService) DeactivateLink(ctx context.Context, link *models.PromotedLink) error {
	_, err := s.syncCampaign(ctx, link, false)
	if err != nil {
		return err
	}
	_ = s.publisher.Publish(ctx, "events:promo", events.Event{
		Type:    events.EventLinkDeactivated,
		Payload: map[string]any{"link_id": link.ID.String()},
	})
	return nil
}

// DeactivateCampaign re-runs only the flight step with active=false.
func (s *SyncService) DeactivateCampaign(ctx context.Context, campaign *models.PromoCampaign) error {
	link, err := s.links.GetByID(ctx, campaign.LinkID)
	if err != nil {
		return fmt.Errorf("loading link for campaign %s: %w", campaign.ID, err)
	}
	if _, err := s.syncFlight(ctx, link, campaign, false); err != nil {
		return err
	}
	_ = s.publisher.Publish(ctx, "events:promo", events.Event{
		Type:    events.EventCampaignDeactivated,
		Payload: map[string]any{"campaign_id": campaign.ID.String()},
	})
	return nil
}

func (s *SyncService) syncCampaign(ctx context.Context, link *models.PromotedLink, active bool) (int64, error) {
	if link.RemoteCampaignID != nil {
		remote, err := s.api.GetCampaign(ctx, *link.RemoteCampaignID)
		if err != nil {
			return 0, err
		}
		updated, err := s.api.UpdateCampaign(ctx, remote.ID, adserver.UpdateCampaignRequest{
			AdvertiserID: s.cfg.AdvertiserID,
			IsActive:     active,
			IsDeleted:    false,
			Price:        0,
		})
		if err != nil {
			return 0, err
		}
		return updated.ID, nil
	}

	created, err := s.api.CreateCampaign(ctx, adserver.CreateCampaignRequest{
		Name:         link.ID.String(),
		AdvertiserID: s.cfg.AdvertiserID,
		Flights:      []int64{},
		StartDate:    dateToAdserver(time.Now().In(s.cfg.Location())),
		IsActive:     active,
		IsDeleted:    false,
		Price:        0,
	})
	if err != nil {
		return 0, err
	}
	if err := s.links.SetRemoteCampaignID(ctx, link.ID, created.ID); err != nil {
		return 0, fmt.Errorf("storing remote campaign id: %w", err)
	}
	link.RemoteCampaignID = &created.ID
	return created.ID, nil
}

func (s *SyncService) syncCreative(ctx context.Context, link *models.PromotedLink, campaign *models.PromoCampaign) (int64, error) {
	author, err := s.accounts.GetByID(ctx, link.AuthorID)
	if err != nil {
		return 0, fmt.Errorf("loading author: %w", err)
	}

	payload, err := json.Marshal(adserver.CreativePayload{
		Link:     link.ID.String(),
		Campaign: campaign.ID.String(),
		Title:    link.Title,
		Author:   author.Name,
		Target:   campaign.CommunityName,
	})
	if err != nil {
		return 0, err
	}

	title := link.ID.String() + "-" + campaign.ID.String()

	if campaign.RemoteCreativeID != nil {
		remote, err := s.api.GetCreative(ctx, *campaign.RemoteCreativeID)
		if err != nil {
			return 0, err
		}
		updated, err := s.api.UpdateCreative(ctx, remote.ID, adserver.UpdateCreativeRequest{
			Body:         title,
			ScriptBody:   string(payload),
			AdvertiserID: s.cfg.AdvertiserID,
			AdTypeID:     s.cfg.AdTypeID,
			Alt:          link.Title,
			URL:          link.URL,
			IsHTMLJS:     true,
			IsSync:       false,
			IsActive:     true,
			IsDeleted:    false,
		})
		if err != nil {
			return 0, err
		}
		return updated.ID, nil
	}

	created, err := s.api.CreateCreative(ctx, adserver.CreateCreativeRequest{
		Title:        title,
		Body:         title,
		ScriptBody:   string(payload),
		AdvertiserID: s.cfg.AdvertiserID,
		AdTypeID:     s.cfg.AdTypeID,
		Alt:          link.Title,
		URL:          link.URL,
		IsHTMLJS:     true,
		IsSync:       false,
		IsActive:     true,
		IsDeleted:    false,
	})
	if err != nil {
		return 0, err
	}
	if err := s.campaigns.SetRemoteCreativeID(ctx, campaign.ID, created.ID); err != nil {
		return 0, fmt.Errorf("storing remote creative id: %w", err)
	}
	campaign.RemoteCreativeID = &created.ID
	return created.ID, nil
}

func (s *SyncService) syncFlight(ctx context.Context, link *models.PromotedLink, campaign *models.PromoCampaign, active bool) (int64, error) {
	if link.RemoteCampaignID == nil {
		return 0, fmt.Errorf("flight step needs a remote campaign id; run the campaign step first")
	}
	remoteCampaign, err := s.api.GetCampaign(ctx, *link.RemoteCampaignID)
	if err != nil {
		return 0, err
	}

	update := adserver.UpdateFlightRequest{
		CampaignID:  remoteCampaign.ID,
		PriorityID:  s.cfg.PriorityID,
		StartDate:   dateToAdserver(campaign.StartDate),
		EndDate:     dateToAdserver(campaign.EndDate),
		Price:       campaign.CPM.InexactFloat64(),
		OptionType:  adserver.OptionTypeCPM,
		Impressions: campaign.DailyImpressions,
		IsUnlimited: false,
		IsFullSpeed: !campaign.ServeEven,
		Keywords:    KeywordForCommunity(campaign.CommunityName),
		GoalType:    adserver.GoalTypePercentage,
		RateType:    adserver.RateTypeCPM,
		IsFreqCap:   false,
		IsActive:    active,
		IsDeleted:   false,
	}

	if campaign.RemoteFlightID != nil {
		remote, err := s.api.GetFlight(ctx, *campaign.RemoteFlightID)
		if err != nil {
			return 0, err
		}
		updated, err := s.api.UpdateFlight(ctx, remote.ID, update)
		if err != nil {
			return 0, err
		}
		return updated.ID, nil
	}

	created, err := s.api.CreateFlight(ctx, adserver.CreateFlightRequest{
		Name:        campaign.ID.String(),
		CampaignID:  update.CampaignID,
		PriorityID:  update.PriorityID,
		StartDate:   update.StartDate,
		EndDate:     update.EndDate,
		Price:       update.Price,
		OptionType:  update.OptionType,
		Impressions: update.Impressions,
		IsUnlimited: update.IsUnlimited,
		IsFullSpeed: update.IsFullSpeed,
		Keywords:    update.Keywords,
		GoalType:    update.GoalType,
		RateType:    update.RateType,
		IsFreqCap:   update.IsFreqCap,
		IsActive:    update.IsActive,
		IsDeleted:   update.IsDeleted,
	})
	if err != nil {
		return 0, err
	}
	if err := s.campaigns.SetRemoteFlightID(ctx, campaign.ID, created.ID); err != nil {
		return 0, fmt.Errorf("storing remote flight id: %w", err)
	}
	campaign.RemoteFlightID = &created.ID
	return created.ID, nil
}

func (s *SyncService) syncCreativeFlightMap(ctx context.Context, link *models.PromotedLink, campaign *models.PromoCampaign) (int64, error) {
	// Hard ordering dependency: the map joins objects from all three prior
	// steps and cannot exist before them.
	if link.RemoteCampaignID == nil || campaign.RemoteCreativeID == nil || campaign.RemoteFlightID == nil {
		return 0, fmt.Errorf("cfmap step needs remote campaign, creative and flight ids; run the earlier steps first")
	}

	remoteCampaign, err := s.api.GetCampaign(ctx, *link.RemoteCampaignID)
	if err != nil {
		return 0, err
	}
	remoteCreative, err := s.api.GetCreative(ctx, *campaign.RemoteCreativeID)
	if err != nil {
		return 0, err
	}
	remoteFlight, err := s.api.GetFlight(ctx, *campaign.RemoteFlightID)
	if err != nil {
		return 0, err
	}

	req := adserver.CreateCreativeFlightMapRequest{
		CampaignID:   remoteCampaign.ID,
		FlightID:     remoteFlight.ID,
		Creative:     adserver.CreativeRef{ID: remoteCreative.ID},
		PublisherID:  s.cfg.PublisherID,
		SizeOverride: false,
		// One creative per flight, so it takes the whole allocation.
		Percentage:       100,
		DistributionType: adserver.DistributionTypePercentage,
		Iframe:           false,
		Impressions:      campaign.ImpressionCap + impressionBump,
		IsActive:         true,
		IsDeleted:        false,
	}

	if campaign.RemoteCfMapID != nil {
		remote, err := s.api.GetCreativeFlightMap(ctx, remoteFlight.ID, *campaign.RemoteCfMapID)
		if err != nil {
			return 0, err
		}
		updated, err := s.api.UpdateCreativeFlightMap(ctx, remoteFlight.ID, remote.ID, req)
		if err != nil {
			return 0, err
		}
		return updated.ID, nil
	}

	created, err := s.api.CreateCreativeFlightMap(ctx, remoteFlight.ID, req)
	if err != nil {
		return 0, err
	}
	if err := s.campaigns.SetRemoteCfMapID(ctx, campaign.ID, created.ID); err != nil {
		return 0, fmt.Errorf("storing remote cfmap id: %w", err)
	}
	campaign.RemoteCfMapID = &created.ID
	return created.ID, nil
}
