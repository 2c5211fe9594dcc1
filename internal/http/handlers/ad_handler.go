package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

// AdHandler serves the player-facing ad endpoints. None of them require auth.
type AdHandler struct {
	campaignService   *services.CampaignService
	impressionService *services.ImpressionService
	log               *zap.Logger
}

func NewAdHandler(campaignService *services.CampaignService, impressionService *services.ImpressionService, log *zap.Logger) *AdHandler {
	return &AdHandler{campaignService: campaignService, impressionService: impressionService, log: log}
}

func (h *AdHandler) ActiveAds(c *fiber.Ctx) error {
	ads, err := h.campaignService.GetActive(c.Context(), c.Query("type"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: ads})
}

const headerSessionID = "X-Session-ID"

func (h *AdHandler) RecordImpression(c *fiber.Ctx) error {
	var req dto.RecordImpressionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		return badRequest(c, "invalid videoId")
	}
	adID, err := uuid.Parse(req.AdID)
	if err != nil {
		return badRequest(c, "invalid adId")
	}

	ua := c.Get(fiber.HeaderUserAgent)
	session := req.SessionID
	if session == "" {
		session = c.Get(headerSessionID)
	}
	if session == "" {
		session = services.SessionFingerprint(c.IP(), ua)
	}

	res, err := h.impressionService.Record(c.Context(), services.RecordImpressionInput{
		VideoID:      videoID,
		AdID:         adID,
		AdType:       req.AdType,
		Timestamp:    req.Timestamp,
		ImpressionID: req.ImpressionID,
		SessionID:    session,
		UserAgent:    ua,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	// a duplicate is a successful no-op: revenueEarned is zero and message says why
	return c.JSON(dto.ImpressionResponse{
		Success:       true,
		RevenueEarned: res.RevenueEarned,
		AdTitle:       res.AdTitle,
		Message:       res.Message,
	})
}

func (h *AdHandler) RecordClick(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid ad id")
	}

	ad, counted, err := h.campaignService.RecordClick(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	resp := dto.ClickResponse{Success: true, Counted: counted}
	if ad != nil {
		resp.TargetURL = ad.TargetURL
	}
	return c.JSON(resp)
}
