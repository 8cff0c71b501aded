// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalUserID is the fiber.Locals key holding the gateway-asserted user id.
const LocalUserID = "user_id"

// UserContextMiddleware copies the X-User-ID header set by the API gateway
// into c.Locals so handlers can fall back to it when a body omits userId.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, strings.TrimSpace(c.Get("X-User-ID")))
		return c.Next()
	}
}

// UserID returns the gateway-asserted user id, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
