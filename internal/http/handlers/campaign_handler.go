package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/repositories"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	campaign, err := h.campaignService.Create(c.Context(), middleware.GetUserID(c), services.CreateCampaignInput{
		Title:             req.Title,
		AdType:            req.AdType,
		TargetURL:         req.TargetURL,
		CreativeURL:       req.CreativeURL,
		Budget:            req.Budget,
		CPM:               req.CPM,
		CompanyPercentage: req.CompanyPercentage,
		RevenuePerView:    req.RevenuePerView,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.CampaignFilter{Limit: limit, Offset: offset}

	if v := c.Query("type"); v != "" {
		filter.AdType = &v
	}
	switch c.Query("active") {
	case "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	}

	campaigns, err := h.campaignService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Data: campaigns, Limit: limit, Offset: offset})
}

func (h *CampaignHandler) ToggleCampaign(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.Toggle(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: campaign})
}
