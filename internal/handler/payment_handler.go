package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/middleware"
	"gymdesk/internal/service"
)

type PaymentHandler struct {
	payments  domain.PaymentRepository
	plans     domain.PlanRepository
	gateway   service.PaymentGateway
	renewals  *service.RenewalService
	analytics *service.AnalyticsService
}

func NewPaymentHandler(
	payments domain.PaymentRepository,
	plans domain.PlanRepository,
	gateway service.PaymentGateway,
	renewals *service.RenewalService,
	analytics *service.AnalyticsService,
) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		plans:     plans,
		gateway:   gateway,
		renewals:  renewals,
		analytics: analytics,
	}
}

// CreateOrder POST /v1/payments/orders
// Registers a gateway order for the given plan so the browser checkout can
// collect the payment. Nothing is written to the ledger yet; that happens
// on verify.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
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

	plan, err := h.plans.GetByID(c.Context(), gymID, req.PlanID)
	if err != nil {
		return fail(c, err)
	}

	receipt := "rcpt_" + ulid.Make().String()
	order, err := h.gateway.CreateOrder(c.Context(), plan.Price, "INR", receipt)
	if err != nil {
		log.Printf("[Payment] Order creation failed for gym %s: %v", gymID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment gateway unavailable"})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// Verify POST /v1/payments/verify
// Completes an online renewal. The capture signature is checked before any
// write; a mismatch returns 400 and leaves member and ledger untouched.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var req struct {
		MemberID  string `json:"member_id"`
		PlanID    string `json:"plan_id"`
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.MemberID == "" || req.PlanID == "" || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "member_id, plan_id, order_id, payment_id and signature are required"})
	}

	if !h.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Printf("[Payment] Signature mismatch for order %s (gym %s)", req.OrderID, gymID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment signature verification failed"})
	}

	member, payment, err := h.renewals.Renew(c.Context(), service.RenewalInput{
		GymID:     gymID,
		MemberID:  req.MemberID,
		PlanID:    req.PlanID,
		Method:    domain.PaymentMethodOnline,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		log.Printf("[Payment] Online renewal failed for member %s: %v", req.MemberID, err)
		return fail(c, err)
	}
	h.analytics.Invalidate(c.Context(), gymID)

	return c.JSON(fiber.Map{
		"member":  member,
		"payment": payment,
	})
}

// List GET /v1/payments?from=&to=
// The ledger, optionally bounded to a period. Dates are 2006-01-02; the
// `to` day is included in full.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	var from, to time.Time
	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid from date"})
		}
		from = parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid to date"})
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	payments, err := h.payments.GetByGym(c.Context(), gymID, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(payments)
}

// ListByMember GET /v1/members/:id/payments
func (h *PaymentHandler) ListByMember(c *fiber.Ctx) error {
	gymID := middleware.GetGymID(c)

	payments, err := h.payments.GetByMember(c.Context(), gymID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(payments)
}
