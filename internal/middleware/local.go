// Package middleware contains HTTP middleware functions for the scorebook API.
// This file guards the API's only trust boundary: the device it runs on.
package middleware

// local.go: loopback-only access control.
// The scorebook is a single-user tool with no accounts. Instead of authenticating
// callers, every /api route only answers requests that originate on this machine.

import (
	"net"

	"github.com/gofiber/fiber/v2"
)

// RequireLocal returns a middleware handler that allows only requests whose
// remote address is a loopback address (127.0.0.0/8 or ::1).
// Anything else gets HTTP 403 Forbidden.
//
// Pair it with binding the listener to 127.0.0.1: the bind keeps other machines
// out, and this check still holds if someone changes HOST to 0.0.0.0.
//
//	api := app.Group("/api/v1", middleware.RequireLocal())
func RequireLocal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// c.IP() is the direct peer address. X-Forwarded-For is deliberately not
		// consulted; a local tool has no trusted proxy in front of it.
		ip := net.ParseIP(c.IP())
		if ip != nil && ip.IsLoopback() {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "the scorebook API only accepts local requests",
		})
	}
}
