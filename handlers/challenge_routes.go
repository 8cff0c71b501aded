// handlers/challenge_routes.go
package handlers

import (
	"recycle-reward-system/middleware"
	"recycle-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService) {
	list := func(c *fiber.Ctx) error {
		all, err := challenges.List(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(all)
	}

	join := func(c *fiber.Ctx) error {
		var req struct {
			UserID      string `json:"userId"`
			ChallengeID string `json:"challengeId"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}
		if req.UserID == "" {
			req.UserID = middleware.UserID(c)
		}

		joined, err := challenges.Join(c.UserContext(), req.UserID, req.ChallengeID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":          "Challenge Joined Successfully!",
			"joinedChallenges": joined,
		})
	}

	app.Get("/challenges", list)
	app.Get("/api/challenges", list)
	app.Post("/challenges/join", join)
	app.Post("/api/challenges/join", join)
}
