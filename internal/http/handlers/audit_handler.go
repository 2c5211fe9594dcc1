package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/models"
	"go.uber.org/zap"
)

type auditReader interface {
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

// auditEntities are the entity types the services write to the audit log.
var auditEntities = map[string]bool{
	"ad_campaign":        true,
	"withdrawal_request": true,
	"revenue_transfer":   true,
	"creator_balance":    true,
	"payment_method":     true,
}

type AuditHandler struct {
	auditRepo auditReader
	log       *zap.Logger
}

func NewAuditHandler(auditRepo auditReader, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo, log: log}
}

// History lists audit entries for one entity, newest first.
func (h *AuditHandler) History(c *fiber.Ctx) error {
	entityType := c.Params("entityType")
	if !auditEntities[entityType] {
		return badRequest(c, "unknown entity type")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid entity id")
	}

	limit, offset := pagination(c)
	logs, err := h.auditRepo.GetByEntity(c.Context(), entityType, id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse{Success: true, Data: logs, Limit: limit, Offset: offset})
}
