package handler

import (
	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/middleware"
	"gymdesk/internal/service"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// PlanDistribution GET /v1/analytics/plan-distribution
func (h *AnalyticsHandler) PlanDistribution(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	dist, err := h.analytics.PlanDistribution(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dist)
}

// MonthlyRevenue GET /v1/analytics/monthly-revenue
// Sums the payment ledger per calendar month. Member state is never
// consulted, so plan price edits and status churn cannot skew history.
func (h *AnalyticsHandler) MonthlyRevenue(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	revenue, err := h.analytics.MonthlyRevenue(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(revenue)
}

// StatusCounts GET /v1/analytics/status-counts
func (h *AnalyticsHandler) StatusCounts(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	counts, err := h.analytics.StatusCounts(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(counts)
}
