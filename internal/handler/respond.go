package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"gymdesk/internal/domain"
)

// fail maps domain errors onto HTTP statuses. Anything unmapped is a 500.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
	case errors.Is(err, domain.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "record was modified concurrently, retry"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access forbidden"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
