package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/repositories"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

type WithdrawHandler struct {
	withdrawService *services.WithdrawService
	log             *zap.Logger
}

func NewWithdrawHandler(withdrawService *services.WithdrawService, log *zap.Logger) *WithdrawHandler {
	return &WithdrawHandler{withdrawService: withdrawService, log: log}
}

func (h *WithdrawHandler) CreateWithdrawal(c *fiber.Ctx) error {
	var req dto.CreateWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	w, err := h.withdrawService.Create(c.Context(), middleware.GetUserID(c), services.CreateWithdrawalInput{
		Amount:         req.Amount,
		Method:         req.Method,
		AccountDetails: req.AccountDetails,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.WithdrawalResponse{
		Success:         true,
		WithdrawRequest: w,
		Message:         "Withdrawal request submitted",
	})
}

func (h *WithdrawHandler) ListMine(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	items, err := h.withdrawService.ListMine(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Data: items, Limit: limit, Offset: offset})
}

func (h *WithdrawHandler) GetMine(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid withdrawal id")
	}

	w, err := h.withdrawService.GetMine(c.Context(), middleware.GetUserID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: w})
}

func (h *WithdrawHandler) ListPaymentMethods(c *fiber.Ctx) error {
	methods, err := h.withdrawService.ListPaymentMethods(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: methods})
}

func (h *WithdrawHandler) SavePaymentMethod(c *fiber.Ctx) error {
	var req dto.SavePaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	pm, err := h.withdrawService.SavePaymentMethod(c.Context(), middleware.GetUserID(c), c.Params("method"), req.Details)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: pm})
}

// Admin

func (h *WithdrawHandler) AdminList(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.WithdrawFilter{Limit: limit, Offset: offset}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	items, err := h.withdrawService.ListForAdmin(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Data: items, Limit: limit, Offset: offset})
}

func (h *WithdrawHandler) AdminProcess(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid withdrawal id")
	}

	var req dto.ProcessWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	w, err := h.withdrawService.Process(c.Context(), middleware.GetUserID(c), id, services.ProcessWithdrawalInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.WithdrawalResponse{
		Success:         true,
		WithdrawRequest: w,
		Message:         "Withdrawal " + w.Status,
	})
}
