package handler

import (
	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/middleware"
)

type GymHandler struct {
	gyms domain.GymRepository
}

func NewGymHandler(gyms domain.GymRepository) *GymHandler {
	return &GymHandler{gyms: gyms}
}

// Profile GET /v1/gym
// The authenticated gym's own record, as maintained by the auth service.
func (h *GymHandler) Profile(c *fiber.Ctx) error {
	gym, err := h.gyms.GetByID(c.Context(), middleware.GetGymID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(gym)
}
