package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/middleware"
	"gymdesk/internal/service"
)

type MemberHandler struct {
	members   domain.MemberRepository
	plans     domain.PlanRepository
	renewals  *service.RenewalService
	analytics *service.AnalyticsService
	clock     domain.Clock
}

func NewMemberHandler(
	members domain.MemberRepository,
	plans domain.PlanRepository,
	renewals *service.RenewalService,
	analytics *service.AnalyticsService,
	clock domain.Clock,
) *MemberHandler {
	return &MemberHandler{
		members:   members,
		plans:     plans,
		renewals:  renewals,
		analytics: analytics,
		clock:     clock,
	}
}

// Register POST /v1/members
// Creates the member Active on the chosen plan. The paid-through date is the
// join date plus the plan's months; the phone number is unique per gym.
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Phone    string  `json:"phone"`
		Address  string  `json:"address"`
		Age      int     `json:"age"`
		Gender   string  `json:"gender"`
		Height   float64 `json:"height"`
		Weight   float64 `json:"weight"`
		Notes    string  `json:"notes"`
		PlanID   string  `json:"plan_id"`
		JoinDate string  `json:"join_date"` // optional, RFC3339 or 2006-01-02
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Name == "" || req.Phone == "" || req.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, phone and plan_id are required"})
	}

	if existing, err := h.members.GetByPhone(c.Context(), gymID, req.Phone); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a member with this phone already exists"})
	}

	plan, err := h.plans.GetByID(c.Context(), gymID, req.PlanID)
	if err != nil {
		return fail(c, err)
	}

	joinDate := h.clock.Now()
	if req.JoinDate != "" {
		parsed, err := parseDate(req.JoinDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid join_date"})
		}
		joinDate = parsed
	}

	nextBillDate := domain.AddMonths(joinDate, plan.Months)
	member := &domain.Member{
		GymID:        gymID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Age:          req.Age,
		Gender:       req.Gender,
		Height:       req.Height,
		Weight:       req.Weight,
		BMI:          computeBMI(req.Height, req.Weight),
		Notes:        req.Notes,
		PlanID:       plan.ID,
		Status:       domain.DeriveStatus(nextBillDate, h.clock.Now()),
		JoinDate:     joinDate,
		LastPayment:  joinDate,
		NextBillDate: nextBillDate,
	}

	if err := h.members.Create(c.Context(), member); err != nil {
		return fail(c, err)
	}
	h.analytics.Invalidate(c.Context(), gymID)

	return c.Status(fiber.StatusCreated).JSON(member)
}

// List GET /v1/members?page=&limit=
func (h *MemberHandler) List(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	page := int64(c.QueryInt("page", 1))
	if page < 1 {
		page = 1
	}
	limit := int64(c.QueryInt("limit", 20))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	members, total, err := h.members.GetByGym(c.Context(), gymID, (page-1)*limit, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"members": members,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Search GET /v1/members/search?q=
func (h *MemberHandler) Search(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	term := c.Query("q")
	if term == "" {
		return c.JSON([]*domain.Member{})
	}
	members, err := h.members.Search(c.Context(), gymID, term)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

// Monthly GET /v1/members/monthly
// Members who joined during the current calendar month.
func (h *MemberHandler) Monthly(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	now := h.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	members, err := h.members.JoinedBetween(c.Context(), gymID, monthStart, monthEnd)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

// ExpiringInWeek GET /v1/members/expiring-in-week
// Active members whose paid-through date falls within the next seven days.
func (h *MemberHandler) ExpiringInWeek(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	now := h.clock.Now()
	start, _ := domain.DayWindow(now, 0)
	_, end := domain.DayWindow(now, 7)

	members, err := h.members.ExpiringBetween(c.Context(), gymID, start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

// Expired GET /v1/members/expired
// Members still marked Active whose date has already passed; the front desk
// uses this view to chase renewals before the nightly sweep demotes them.
func (h *MemberHandler) Expired(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	members, err := h.members.Expired(c.Context(), gymID, h.clock.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

// Inactive GET /v1/members/inactive
func (h *MemberHandler) Inactive(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	members, err := h.members.Inactive(c.Context(), gymID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

// Get GET /v1/members/:id
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	member, err := h.members.GetByID(c.Context(), gymID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(member)
}

// SetStatus POST /v1/members/:id/status
// Manual override for front-desk corrections. Does not touch billing dates.
func (h *MemberHandler) SetStatus(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.Status != domain.StatusActive && req.Status != domain.StatusInactive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be Active or Inactive"})
	}

	if err := h.members.SetStatus(c.Context(), gymID, c.Params("id"), req.Status); err != nil {
		return fail(c, err)
	}
	h.analytics.Invalidate(c.Context(), gymID)

	return c.JSON(fiber.Map{"message": "status updated", "status": req.Status})
}

// Renew PUT /v1/members/:id/renew
// Cash renewal at the front desk. Online renewals come in through the
// payment verify endpoint instead.
func (h *MemberHandler) Renew(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.PlanID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plan_id is required"})
	}

	member, payment, err := h.renewals.Renew(c.Context(), service.RenewalInput{
		GymID:    gymID,
		MemberID: c.Params("id"),
		PlanID:   req.PlanID,
		Method:   domain.PaymentMethodCash,
	})
	if err != nil {
		log.Printf("[Member] Renewal failed for member %s: %v", c.Params("id"), err)
		return fail(c, err)
	}
	h.analytics.Invalidate(c.Context(), gymID)

	return c.JSON(fiber.Map{
		"member":  member,
		"payment": payment,
	})
}

// Update PUT /v1/members/:id
// Profile fields only. Billing state (plan, dates, status, version) is
// managed exclusively by renewals and the status endpoints.
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	member, err := h.members.GetByID(c.Context(), gymID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Name    *string  `json:"name"`
		Email   *string  `json:"email"`
		Phone   *string  `json:"phone"`
		Address *string  `json:"address"`
		Age     *int     `json:"age"`
		Gender  *string  `json:"gender"`
		Height  *float64 `json:"height"`
		Weight  *float64 `json:"weight"`
		Notes   *string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.Name != nil {
		member.Name = *req.Name
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Address != nil {
		member.Address = *req.Address
	}
	if req.Age != nil {
		member.Age = *req.Age
	}
	if req.Gender != nil {
		member.Gender = *req.Gender
	}
	if req.Height != nil {
		member.Height = *req.Height
	}
	if req.Weight != nil {
		member.Weight = *req.Weight
	}
	if req.Notes != nil {
		member.Notes = *req.Notes
	}
	member.BMI = computeBMI(member.Height, member.Weight)

	if err := h.members.Update(c.Context(), member); err != nil {
		return fail(c, err)
	}
	return c.JSON(member)
}

func computeBMI(heightCm, weightKg float64) float64 {
	if heightCm <= 0 || weightKg <= 0 {
		return 0
	}
	hM := heightCm / 100
	return weightKg / (hM * hM)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
