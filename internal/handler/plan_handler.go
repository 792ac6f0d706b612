package handler

import (
	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/middleware"
)

type PlanHandler struct {
	plans domain.PlanRepository
}

func NewPlanHandler(plans domain.PlanRepository) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// Upsert POST /v1/plans
// A gym offers at most one plan per month count; posting an existing count
// updates its price. Price edits never rewrite payment history because
// payments copy the price at transaction time.
func (h *PlanHandler) Upsert(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		Months int   `json:"months"`
		Price  int64 `json:"price"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Months < 1 || req.Months > 60 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "months must be between 1 and 60"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must not be negative"})
	}

	plan := &domain.Plan{
		GymID:  gymID,
		Months: req.Months,
		Price:  req.Price,
	}
	if err := h.plans.Upsert(c.Context(), plan); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// List GET /v1/plans
func (h *PlanHandler) List(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	plans, err := h.plans.GetByGym(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(plans)
}
