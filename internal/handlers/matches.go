// matches.go handles the match routes: creating a match,
// recording rounds, ending or discarding it, and browsing completed matches.
//
// Every route acts on the single active match ("current"); there is no way to
// address an ongoing match by id because at most one exists.
//
// --- Status codes ---
//   - 400: the request body is malformed or fails validation (e.g. fewer than 2 players)
//   - 404: the target does not exist (no active match, unknown round or match id)
//   - 409: a match is already in progress when creating a new one

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/scorebook/internal/lifecycle"
)

// CreateMatchRequest is the JSON body we expect on POST /api/v1/matches.
type CreateMatchRequest struct {
	Name        string   `json:"name"`         // Optional: blank falls back to lifecycle.DefaultMatchName
	PlayerNames []string `json:"player_names"` // Required: at least 2 non-blank names
}

// RoundRequest is the JSON body for adding or editing a round.
type RoundRequest struct {
	Scores map[string]int `json:"scores"` // playerId -> signed delta; missing players score 0
}

// CreateMatch returns a handler for POST /api/v1/matches.
// On success it answers 201 with the new match's scoreboard.
func CreateMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateMatchRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if _, err := lc.CreateMatch(req.Name, req.PlayerNames); err != nil {
			// errors.As checks whether err is (or wraps) a *ValidationError and, if so,
			// fills ve so we can show its message to the user.
			var ve *lifecycle.ValidationError
			switch {
			case errors.As(err, &ve):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": ve.Message,
					"field": ve.Field,
				})
			case errors.Is(err, lifecycle.ErrMatchInProgress):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "end or discard the current match first",
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to create match",
				})
			}
		}

		sb, _ := lc.Scoreboard()
		return c.Status(fiber.StatusCreated).JSON(sb)
	}
}

// GetCurrentMatch returns a handler for GET /api/v1/matches/current.
func GetCurrentMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sb, ok := lc.Scoreboard()
		if !ok {
			return noActiveMatch(c)
		}
		return c.JSON(sb)
	}
}

// AddRound returns a handler for POST /api/v1/matches/current/rounds.
// It answers 201 with the updated scoreboard.
func AddRound(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RoundRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if _, ok := lc.AddRound(req.Scores); !ok {
			return noActiveMatch(c)
		}
		sb, _ := lc.Scoreboard()
		return c.Status(fiber.StatusCreated).JSON(sb)
	}
}

// EditRound returns a handler for PUT /api/v1/matches/current/rounds/:id.
// The round keeps its id, timestamp and position; only its scores change.
func EditRound(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RoundRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		// c.Params("id") reads the :id segment of the route path
		if !lc.EditRound(c.Params("id"), req.Scores) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "round not found",
			})
		}
		sb, _ := lc.Scoreboard()
		return c.JSON(sb)
	}
}

// DeleteRound returns a handler for DELETE /api/v1/matches/current/rounds/:id.
func DeleteRound(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !lc.DeleteRound(c.Params("id")) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "round not found",
			})
		}
		sb, _ := lc.Scoreboard()
		return c.JSON(sb)
	}
}

// EndMatch returns a handler for POST /api/v1/matches/current/end.
// It answers with the scoreboard of the match as it was archived.
func EndMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		done, ok := lc.EndMatch()
		if !ok {
			return noActiveMatch(c)
		}
		sb, _ := lc.HistoryScoreboard(done.ID)
		return c.JSON(sb)
	}
}

// DiscardMatch returns a handler for DELETE /api/v1/matches/current.
// The match is dropped without being archived; 204 No Content on success.
func DiscardMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !lc.DiscardMatch() {
			return noActiveMatch(c)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// HistorySummary is one line of the history list.
type HistorySummary struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	RoundCount  int                   `json:"round_count"`
	PlayerCount int                   `json:"player_count"`
	Winner      *lifecycle.PlayerLine `json:"winner,omitempty"`
	CreatedAt   string                `json:"created_at"`   // RFC 3339
	CompletedAt string                `json:"completed_at"` // RFC 3339
}

// GetHistory returns a handler for GET /api/v1/history.
// Completed matches are listed newest first.
func GetHistory(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := lc.Snapshot()
		response := make([]HistorySummary, 0, len(snap.History))
		for _, sb := range snap.History {
			s := HistorySummary{
				ID:          sb.MatchID,
				Name:        sb.Name,
				RoundCount:  len(sb.Rounds),
				PlayerCount: len(sb.Players),
				Winner:      sb.Winner,
				CreatedAt:   formatTime(sb.CreatedAt),
			}
			if sb.CompletedAt != nil {
				s.CompletedAt = formatTime(*sb.CompletedAt)
			}
			response = append(response, s)
		}
		return c.JSON(response)
	}
}

// GetHistoryMatch returns a handler for GET /api/v1/history/:id.
func GetHistoryMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sb, ok := lc.HistoryScoreboard(c.Params("id"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "match not found",
			})
		}
		return c.JSON(sb)
	}
}

// DeleteHistoryMatch returns a handler for DELETE /api/v1/history/:id.
func DeleteHistoryMatch(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !lc.DeleteHistoryMatch(c.Params("id")) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "match not found",
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// noActiveMatch writes the 404 every current-match route shares.
func noActiveMatch(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "no match in progress",
	})
}
