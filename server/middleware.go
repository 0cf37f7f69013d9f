package server

import (
	"github.com/gofiber/fiber/v3"
)

// HeaderUserID carries the gateway-verified caller identity.
const HeaderUserID = "X-User-ID"

const principalKey = "principal"

// RequirePrincipal creates a Fiber middleware that rejects requests
// without a caller identity and injects the identity into the request
// locals for handlers.
func RequirePrincipal() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID := c.Get(HeaderUserID)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing caller identity",
			})
		}

		c.Locals(principalKey, userID)

		return c.Next()
	}
}

// Principal extracts the caller identity from Fiber locals.
func Principal(c fiber.Ctx) string {
	userID, ok := c.Locals(principalKey).(string)
	if !ok {
		return ""
	}
	return userID
}
