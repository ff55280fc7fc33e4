package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/scorebook/internal/lifecycle"
	"github.com/trentd187/scorebook/internal/live"
	"github.com/trentd187/scorebook/internal/models"
	"github.com/trentd187/scorebook/internal/settings"
)

// StateResponse is the full snapshot plus presentation settings, enough for the
// presentation layer to draw any screen without a second request.
type StateResponse struct {
	lifecycle.Snapshot
	Settings           models.AppSettings `json:"settings"`
	OnboardingComplete bool               `json:"onboarding_complete"`
}

// keepAliveInterval is how often an idle stream gets an SSE comment line, so
// proxies and the client's reader do not time the connection out.
const keepAliveInterval = 15 * time.Second

func buildState(lc *lifecycle.Manager, svc *settings.Service) StateResponse {
	return StateResponse{
		Snapshot:           lc.Snapshot(),
		Settings:           svc.Get(),
		OnboardingComplete: svc.OnboardingComplete(),
	}
}

// GetState returns a handler for GET /api/v1/state.
func GetState(lc *lifecycle.Manager, svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(buildState(lc, svc))
	}
}

// GetStats returns a handler for GET /api/v1/stats (the dashboard numbers).
func GetStats(lc *lifecycle.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(lc.Stats())
	}
}

// PublishState encodes the current state and hands it to the hub.
// It is registered as the lifecycle manager's change hook.
func PublishState(hub *live.Hub, lc *lifecycle.Manager, svc *settings.Service) {
	data, err := json.Marshal(buildState(lc, svc))
	if err != nil {
		log.Printf("[live] Failed to encode state: %v", err)
		return
	}
	hub.Publish(live.TopicState, data)
}

// StreamState returns a handler for GET /api/v1/stream.
// It keeps the connection open as a server-sent event stream: one "state" event
// with the current snapshot right away, then one per change.
func StreamState(hub *live.Hub, lc *lifecycle.Manager, svc *settings.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// SSE headers
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		first, err := json.Marshal(buildState(lc, svc))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to encode state",
			})
		}

		client := live.NewClient(live.TopicState)
		if !hub.Register(client) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "server is shutting down",
			})
		}

		// fasthttp runs the stream writer after the handler returns; the writer
		// owns the client from here on and unregisters it when the peer goes away.
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer hub.Unregister(client)

			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()

			if writeEvent(w, first) != nil {
				return
			}
			for {
				select {
				case data, ok := <-client.Send:
					if !ok {
						return
					}
					if writeEvent(w, data) != nil {
						return
					}
				case <-ticker.C:
					w.WriteString(":\n\n")
					// Flush is the only way to notice a closed connection
					if w.Flush() != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

// writeEvent writes one SSE "state" event and flushes it to the client.
func writeEvent(w *bufio.Writer, data []byte) error {
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return w.Flush()
}

// formatTime formats timestamps as RFC 3339 in UTC for easy parsing on the client.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
