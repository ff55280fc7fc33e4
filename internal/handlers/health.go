// Package handlers contains the HTTP route handler functions for the scorebook API.
// The API is the boundary the presentation layer talks to: each handler reads a
// request, calls one lifecycle, roster or settings operation, and writes JSON back.
// No handler holds state of its own.
package handlers

import "github.com/gofiber/fiber/v2"

// HealthCheck handles GET /health.
// It returns a simple JSON response indicating the server is alive and reachable.
// This endpoint is intentionally lightweight: no storage reads, no locks.
// The presentation shell polls it on start-up to know when the API is ready.
//
// c *fiber.Ctx is the request context. It gives access to the request data and
// methods for writing the response. All Fiber handlers follow this same signature.
func HealthCheck(c *fiber.Ctx) error {
	// c.JSON serializes the map to JSON and sends it with a 200 OK status.
	// fiber.Map is just a shorthand for map[string]interface{}.
	return c.JSON(fiber.Map{"status": "ok"})
}
