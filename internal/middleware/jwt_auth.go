package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"gymdesk/internal/domain"
)

// Context keys for storing gym info
const (
	GymIDKey    = "gymID"
	UsernameKey = "username"
)

// VerifyGymToken validates the JWT issued by the auth service and stores
// the gym id in the request context. Every protected route is scoped to
// that gym id; there is no cross-gym access.
func VerifyGymToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}

		// Parse and validate token
		token, err := jwt.ParseWithClaims(tokenString, &domain.GymClaims{}, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Extract claims
		claims, ok := token.Claims.(*domain.GymClaims)
		if !ok || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}
		if claims.GymID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token has no gym scope",
			})
		}

		// Store claims in context
		c.Locals(GymIDKey, claims.GymID)
		c.Locals(UsernameKey, claims.Username)

		return c.Next()
	}
}

// GetGymID extracts the gym ID from Fiber context
// Should only be called after VerifyGymToken middleware
func GetGymID(c *fiber.Ctx) string {
	gymID, ok := c.Locals(GymIDKey).(string)
	if !ok {
		return ""
	}
	return gymID
}
