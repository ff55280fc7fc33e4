package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/scorebook/internal/lifecycle"
	"github.com/trentd187/scorebook/internal/live"
	"github.com/trentd187/scorebook/internal/settings"
)

// Deps bundles what the route handlers need.
type Deps struct {
	Matches  *lifecycle.Manager
	Settings *settings.Service
	Hub      *live.Hub // Optional; without it /stream is not registered
}

// SetupRoutes registers every API route on router.
// main mounts it under /api/v1 behind middleware.RequireLocal; tests mount it
// on a bare app.
func SetupRoutes(router fiber.Router, d Deps) {
	// Whole-state reads
	router.Get("/state", GetState(d.Matches, d.Settings))
	router.Get("/stats", GetStats(d.Matches))
	if d.Hub != nil {
		router.Get("/stream", StreamState(d.Hub, d.Matches, d.Settings))
	}

	// Active match
	// POST   /matches                      create (409 if one is in progress)
	// GET    /matches/current              scoreboard
	// POST   /matches/current/rounds       add a round
	// PUT    /matches/current/rounds/:id   replace a round's scores
	// DELETE /matches/current/rounds/:id   remove a round
	// POST   /matches/current/end          archive to history
	// DELETE /matches/current              drop without archiving
	router.Post("/matches", CreateMatch(d.Matches))
	router.Get("/matches/current", GetCurrentMatch(d.Matches))
	router.Post("/matches/current/rounds", AddRound(d.Matches))
	router.Put("/matches/current/rounds/:id", EditRound(d.Matches))
	router.Delete("/matches/current/rounds/:id", DeleteRound(d.Matches))
	router.Post("/matches/current/end", EndMatch(d.Matches))
	router.Delete("/matches/current", DiscardMatch(d.Matches))

	// History
	router.Get("/history", GetHistory(d.Matches))
	router.Get("/history/:id", GetHistoryMatch(d.Matches))
	router.Delete("/history/:id", DeleteHistoryMatch(d.Matches))

	// Roster
	router.Get("/players", GetPlayers(d.Matches))
	router.Delete("/players/:id", DeletePlayer(d.Matches))

	// Presentation settings and onboarding
	router.Get("/settings", GetSettings(d.Settings))
	router.Put("/settings", UpdateSettings(d.Settings))
	router.Get("/onboarding", GetOnboarding(d.Settings))
	router.Post("/onboarding/complete", CompleteOnboarding(d.Settings))
}
