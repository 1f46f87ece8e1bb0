package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/promoserve/backend/internal/config"
	"github.com/promoserve/backend/internal/http/dto"
	"github.com/promoserve/backend/internal/services"
	"go.uber.org/zap"
)

type PromoHandler struct {
	promoService *services.PromoService
	cfg          *config.Config
	log          *zap.Logger
}

func NewPromoHandler(promoService *services.PromoService, cfg *config.Config, log *zap.Logger) *PromoHandler {
	return &PromoHandler{promoService: promoService, cfg: cfg, log: log}
}

// GetPromotion serves the decision path. 204 means "nothing to show" — the
// page renders without a promotion, whether the engine had no decision or
// simply did not answer in time.
func (h *PromoHandler) GetPromotion(c *fiber.Ctx) error {
	user := c.Query("user")
	site := c.Query("site")

	result, err := h.promoService.GetSinglePromotion(c.Context(), user, site)
	if err != nil {
		h.log.Error("decision request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "ad decision unavailable"})
	}
	if result == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(dto.PromoResponse{
		LinkID:     result.LinkID,
		CampaignID: result.CampaignID,
		Target:     result.Target,
		ImpPixel:   result.ImpPixel,
		ClickURL:   result.ClickURL,
	})
}

func (h *PromoHandler) GetPromoConfig(c *fiber.Ctx) error {
	return c.JSON(dto.PromoConfigResponse{
		SiteID:       h.cfg.SiteID,
		AdvertiserID: h.cfg.AdvertiserID,
		PriorityID:   h.cfg.PriorityID,
		ChannelID:    h.cfg.ChannelID,
		PublisherID:  h.cfg.PublisherID,
		NetworkID:    h.cfg.NetworkID,
		AdTypeID:     h.cfg.AdTypeID,
	})
}
