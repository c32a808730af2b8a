package httpapi

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-insight/internal/metrics"
	"github.com/i474232898/weather-insight/internal/narrator"
)

const defaultNarrateTimeout = 60 * time.Second

// registerNarratorRoutes serves the analysis endpoint itself. Its error body is
// {"error": "..."} rather than the app-wide error shape, matching what the
// analysis client decodes.
func registerNarratorRoutes(app *fiber.App, provider narrator.Provider, timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultNarrateTimeout
	}

	app.Post("/api/ai-analysis", func(c *fiber.Ctx) error {
		var input narrator.Input
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid analysis request body"})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		start := time.Now()
		text, err := provider.Narrate(ctx, input)
		if err != nil {
			metrics.ObserveNarration(provider.Name(), metrics.ResultError, time.Since(start))
			log.Printf("ERROR: narrator %s: %v", provider.Name(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate analysis"})
		}
		metrics.ObserveNarration(provider.Name(), metrics.ResultSuccess, time.Since(start))

		return c.JSON(fiber.Map{"analysis": text})
	})
}
