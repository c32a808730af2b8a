package httpapi

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-insight/internal/analysis"
	"github.com/i474232898/weather-insight/internal/navigation"
	"github.com/i474232898/weather-insight/internal/narrator"
	"github.com/i474232898/weather-insight/internal/weather"
)

var validate = validator.New()

// Deps are the services behind the HTTP API. Narrator is optional.
type Deps struct {
	Weather  *weather.Service
	Sessions *analysis.Registry
	Narrator narrator.Provider

	// NarrateTimeout bounds one provider call behind POST /api/ai-analysis.
	NarrateTimeout time.Duration

	// StreamInterval is how often the reveal stream checks for changes.
	StreamInterval time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	registerWeatherRoutes(v1, deps.Weather)
	registerYearRoutes(v1)
	if deps.Sessions != nil {
		registerAnalysisRoutes(v1, deps.Sessions, deps.StreamInterval)
	}
	if deps.Narrator != nil {
		registerNarratorRoutes(app, deps.Narrator, deps.NarrateTimeout)
	}
}

func registerWeatherRoutes(r fiber.Router, service *weather.Service) {
	r.Get("/weather/recent", func(c *fiber.Ctx) error {
		window, err := service.Recent()
		if err != nil {
			log.Printf("ERROR: recent weather window: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute recent weather")
		}

		return c.JSON(fiber.Map{
			"today":   window.Today.String(),
			"count":   len(window.Records),
			"weather": window.Records,
		})
	})

	r.Post("/weather/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
		defer cancel()

		if err := service.Load(ctx); err != nil {
			log.Printf("ERROR: weather log refresh: %v", err)
			return fiber.NewError(fiber.StatusBadGateway, "failed to load weather log")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// yearForm is the year selector submission, accepted as a form or JSON.
type yearForm struct {
	Years string `form:"years" json:"years"`
}

func registerYearRoutes(r fiber.Router) {
	r.Get("/years", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"field": navigation.FieldName,
			"years": navigation.Years,
		})
	})

	r.Post("/years", func(c *fiber.Ctx) error {
		var form yearForm
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&form); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid year selection")
			}
		}

		path, ok, err := navigation.Target(form.Years)
		if err != nil {
			if errors.Is(err, navigation.ErrUnknownYear) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Redirect(path, fiber.StatusSeeOther)
	})
}
