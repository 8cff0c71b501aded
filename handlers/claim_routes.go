// handlers/claim_routes.go
package handlers

import (
	"recycle-reward-system/middleware"
	"recycle-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

type claimRequest struct {
	UserID     string `json:"userId"`
	TokenID    string `json:"tokenId"`
	TokenValue string `json:"tokenValue"` // older app builds
}

type completedChallenge struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	RewardPoints int64  `json:"rewardPoints"`
}

func SetupClaimRoutes(app *fiber.App, claims *services.ClaimCoordinator) {
	handler := func(c *fiber.Ctx) error {
		var req claimRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c)
		}
		if req.TokenID == "" {
			req.TokenID = req.TokenValue
		}
		if req.UserID == "" {
			req.UserID = middleware.UserID(c)
		}

		result, err := claims.Claim(c.UserContext(), req.UserID, req.TokenID)
		if err != nil {
			return respondError(c, err)
		}

		completed := make([]completedChallenge, 0, len(result.CompletedChallenges))
		for _, ch := range result.CompletedChallenges {
			completed = append(completed, completedChallenge{ID: ch.ID, Title: ch.Title, RewardPoints: ch.RewardPoints})
		}

		return c.JSON(fiber.Map{
			"success":             true,
			"message":             result.Message,
			"newTotalPoints":      result.NewTotalPoints,
			"totalRecycled":       result.TotalRecycled,
			"pointsEarned":        result.PointsEarned,
			"category":            result.Category,
			"trashType":           result.Category,
			"completedChallenges": completed,
		})
	}

	app.Post("/claim", handler)
	app.Post("/api/recycle/claim", handler)
}
