// handlers/user_routes.go
package handlers

import (
	"recycle-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, users *services.UserService, ledger *services.RewardLedger) {
	getUser := func(c *fiber.Ctx) error {
		user, err := users.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	}

	leaderboard := func(c *fiber.Ctx) error {
		entries, err := users.Leaderboard(c.UserContext(), c.QueryInt("limit", 10))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	}

	history := func(c *fiber.Ctx) error {
		entries, err := ledger.History(c.UserContext(), c.Params("userId"), c.QueryInt("limit", 50))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entries)
	}

	register := func(c *fiber.Ctx) error {
		var req struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}
		user, err := users.Register(c.UserContext(), req.ID, req.Name, req.Email)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}

	app.Get("/user/:id", getUser)
	app.Get("/api/user/:id", getUser)
	app.Get("/leaderboard", leaderboard)
	app.Get("/api/leaderboard", leaderboard)
	app.Get("/history/:userId", history)
	app.Get("/api/history/:userId", history)
	app.Post("/users", register)
}
