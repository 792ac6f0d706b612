package handler

import (
	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/middleware"
)

type EquipmentHandler struct {
	equipment domain.EquipmentRepository
}

func NewEquipmentHandler(equipment domain.EquipmentRepository) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// Create POST /v1/equipment
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		Name        string `json:"name"`
		MuscleGroup string `json:"muscle_group"`
		Status      string `json:"status"`
		Location    string `json:"location"`
		Quantity    int    `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.Status == "" {
		req.Status = domain.EquipmentStatusActive
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	eq := &domain.Equipment{
		GymID:       gymID,
		Name:        req.Name,
		MuscleGroup: req.MuscleGroup,
		Status:      req.Status,
		Location:    req.Location,
		Quantity:    req.Quantity,
	}
	if err := h.equipment.Create(c.Context(), eq); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(eq)
}

// List GET /v1/equipment
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	items, err := h.equipment.GetByGym(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}
