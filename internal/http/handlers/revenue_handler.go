package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

type RevenueHandler struct {
	revenueService *services.RevenueService
	log            *zap.Logger
}

func NewRevenueHandler(revenueService *services.RevenueService, log *zap.Logger) *RevenueHandler {
	return &RevenueHandler{revenueService: revenueService, log: log}
}

func (h *RevenueHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.revenueService.Analytics(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(analytics)
}

func (h *RevenueHandler) Transfer(c *fiber.Ctx) error {
	res, err := h.revenueService.Transfer(c.Context(), middleware.GetUserID(c))
	if errors.Is(err, models.ErrNothingToTransfer) {
		return badRequest(c, "No revenue available to transfer")
	}
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.TransferResponse{
		Success:           true,
		TransferredAmount: res.TransferredAmount,
		NewBalance:        res.NewBalance,
		Message:           "Revenue transferred to balance",
	})
}

func (h *RevenueHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.revenueService.Balance(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: balance})
}

func (h *RevenueHandler) Transactions(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	txs, err := h.revenueService.Transactions(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Data: txs, Limit: limit, Offset: offset})
}
