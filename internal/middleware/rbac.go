package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// RequireCapability lets the request through when the caller's role holds
// any of the listed capabilities.
func RequireCapability(capabilities ...models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, ok := Identity(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		for _, capability := range capabilities {
			if role.Can(capability) {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
