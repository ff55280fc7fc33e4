package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/scorebook/internal/models"
	"github.com/trentd187/scorebook/internal/settings"
)

// GetSettings returns a handler for GET /api/v1/settings.
func GetSettings(svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Get())
	}
}

// UpdateSettings returns a handler for PUT /api/v1/settings.
// The body replaces the settings wholesale, so omitted booleans become false.
func UpdateSettings(svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.AppSettings
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := svc.Update(req); err != nil {
			if errors.Is(err, settings.ErrInvalidAccent) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save settings",
			})
		}
		return c.JSON(svc.Get())
	}
}

// GetOnboarding returns a handler for GET /api/v1/onboarding.
// The presentation layer shows the tutorial while "complete" is false.
func GetOnboarding(svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"complete": svc.OnboardingComplete()})
	}
}

// CompleteOnboarding returns a handler for POST /api/v1/onboarding/complete.
func CompleteOnboarding(svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.CompleteOnboarding()
		return c.JSON(fiber.Map{"complete": true})
	}
}
