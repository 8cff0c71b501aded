package handlers

import (
	"errors"
	"log"

	"recycle-reward-system/models"
	"recycle-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// errorTable is the only place service errors become client-visible codes.
var errorTable = []errorMapping{
	{services.ErrInvalidRequest, fiber.StatusBadRequest, "InvalidRequest", "Missing or malformed request fields"},
	{services.ErrTokenAlreadyUsed, fiber.StatusBadRequest, "TokenAlreadyUsed", "Token already claimed"},
	{services.ErrTokenInvalid, fiber.StatusNotFound, "TokenInvalid", "Invalid Token"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "UserNotFound", "User not found"},
	{services.ErrChallengeNotFound, fiber.StatusNotFound, "ChallengeNotFound", "Challenge not found"},
	{services.ErrAlreadyJoined, fiber.StatusBadRequest, "AlreadyJoined", "Already joined this challenge"},
	{services.ErrUserExists, fiber.StatusConflict, "UserExists", "User already exists"},
	{models.ErrUnknownCategory, fiber.StatusBadRequest, "UnknownCategory", "Unknown waste category"},
}

// respondError writes the mapped status and message for err. Unmapped errors
// are logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(fiber.Map{"success": false, "code": m.code, "message": m.message})
		}
	}
	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"code":    "StoreUnavailable",
		"message": "Server Error",
	})
}

func badRequest(c *fiber.Ctx) error {
	return respondError(c, services.ErrInvalidRequest)
}
