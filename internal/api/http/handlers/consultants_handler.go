package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/service"
)

// ConsultantsHandler lists assignable staff.
type ConsultantsHandler struct {
	directory *service.DirectoryService
}

// NewConsultantsHandler constructs handler.
func NewConsultantsHandler(directory *service.DirectoryService) *ConsultantsHandler {
	return &ConsultantsHandler{directory: directory}
}

// List GET /consultants.
func (h *ConsultantsHandler) List(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	users, err := h.directory.ListConsultants(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewUserListResponse(users))
}
