package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/http/dto"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/rbac"
	"go.uber.org/zap"
)

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserHandler struct {
	userRepo userReader
	log      *zap.Logger
}

func NewUserHandler(userRepo userReader, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, log: log}
}

type meResponse struct {
	User        *models.User `json:"user,omitempty"`
	UserID      uuid.UUID    `json:"userId"`
	Role        string       `json:"role"`
	Permissions []string     `json:"permissions"`
}

// GetMe reports who the token belongs to and what it may do. The users row
// is optional since accounts are owned by the auth service.
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: meResponse{
		User:        user,
		UserID:      userID,
		Role:        role,
		Permissions: rbac.RolePermissions[role],
	}})
}
