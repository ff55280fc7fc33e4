package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/scorebook/internal/lifecycle"
)

// GetPlayers returns a handler for GET /api/v1/players.
// The roster is returned in registration order with its cached standings.
func GetPlayers(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(lc.Players())
	}
}

// DeletePlayer returns a handler for DELETE /api/v1/players/:id.
// The player also leaves the active match; completed matches keep the id.
func DeletePlayer(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !lc.DeletePlayer(c.Params("id")) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "player not found",
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
