// handlers/token_routes.go
package handlers

import (
	"recycle-reward-system/middleware"
	"recycle-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

type generateTokenRequest struct {
	Category  string `json:"category"`
	WasteType string `json:"wasteType"` // IoT client field name
}

func SetupTokenRoutes(app *fiber.App, issuer *services.TokenIssuer, display *services.DisplayStream, deviceToken string) {
	handler := func(c *fiber.Ctx) error {
		var req generateTokenRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}
		if req.Category == "" {
			req.Category = req.WasteType
		}

		tok, err := issuer.Issue(c.UserContext(), req.Category)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"tokenId":   tok.ID,
			"points":    tok.PointValue,
			"category":  tok.Category,
			"expiresAt": tok.ExpiresAt,
			"qrUrl":     display.QRURL(tok.ID),
		})
	}

	device := middleware.DeviceAuthMiddleware(deviceToken)
	app.Post("/token/generate", device, handler)
	app.Post("/api/token/generate", device, handler)

	app.Get("/display/stream", display.Stream)
}
