package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/promoserve/backend/internal/http/dto"
	"github.com/promoserve/backend/internal/repositories"
	"github.com/promoserve/backend/internal/services"
	"go.uber.org/zap"
)

// InternalHandler hosts the trigger endpoints the host application calls:
// void hooks, forced re-sync, and operator reads of the promotion log.
type InternalHandler struct {
	syncService  *services.SyncService
	linkRepo     *repositories.LinkRepo
	campaignRepo *repositories.CampaignRepo
	promoLogRepo *repositories.PromotionLogRepo
	log          *zap.Logger
}

func NewInternalHandler(
	syncService *services.SyncService,
	linkRepo *repositories.LinkRepo,
	campaignRepo *repositories.CampaignRepo,
	promoLogRepo *repositories.PromotionLogRepo,
	log *zap.Logger,
) *InternalHandler {
	return &InternalHandler{
		syncService:  syncService,
		linkRepo:     linkRepo,
		campaignRepo: campaignRepo,
		promoLogRepo: promoLogRepo,
		log:          log,
	}
}

// VoidLink deactivates the link's remote campaign, which stops the whole
// remote subtree serving.
func (h *InternalHandler) VoidLink(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	link, err := h.linkRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
	}

	if err := h.syncService.DeactivateLink(c.Context(), link); err != nil {
		h.log.Error("link deactivation failed", zap.String("link_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// VoidCampaign deactivates only the campaign's remote flight.
func (h *InternalHandler) VoidCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	campaign, err := h.campaignRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
	}

	if err := h.syncService.DeactivateCampaign(c.Context(), campaign); err != nil {
		h.log.Error("campaign deactivation failed", zap.String("campaign_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// SyncCampaign forces one (link, campaign) pair through the full sync
// sequence, outside the worker's schedule.
func (h *InternalHandler) SyncCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	campaign, err := h.campaignRepo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
	}
	link, err := h.linkRepo.GetByID(c.Context(), campaign.LinkID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
	}

	if err := h.syncService.Sync(c.Context(), link, campaign); err != nil {
		h.log.Error("forced sync failed", zap.String("campaign_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetPromotionLog lets operators read the audit trail for a link.
func (h *InternalHandler) GetPromotionLog(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	entries, err := h.promoLogRepo.ListByLink(c.Context(), id, limit, offset)
	if err != nil {
		h.log.Error("promotion log read failed", zap.String("link_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
