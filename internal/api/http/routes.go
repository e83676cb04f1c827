package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/devanshc/weather-monitoring/internal/weather"
)

var validate = validator.New()

// Handlers bundles the collaborators the HTTP surface needs.
type Handlers struct {
	Pipeline   *weather.IngestionPipeline
	Aggregator *weather.SummaryAggregator
	Evaluator  *weather.AlertEvaluator

	Observations weather.ObservationStore
	Thresholds   weather.ThresholdStore
	Summaries    weather.SummaryStore
	Alerts       weather.AlertStore
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/weather")

	// Fetch fresh observations for every configured city immediately.
	api.Get("/fetch", func(c *fiber.Ctx) error {
		observations := h.Pipeline.RunOnce(c.Context())
		return c.JSON(observations)
	})

	api.Get("/historical", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		observations, err := h.Observations.Query(c.Context(), req.City, req.From, req.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch historical data")
		}
		if len(observations) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested range")
		}
		return c.JSON(observations)
	})

	api.Get("/summaries", func(c *fiber.Ctx) error {
		summaries, err := h.Summaries.ListAll(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch summaries")
		}
		if summaries == nil {
			summaries = []weather.DailySummary{}
		}
		return c.JSON(summaries)
	})

	// Recompute today's summaries on demand, same code path as the nightly job.
	api.Get("/calculate-summary", func(c *fiber.Ctx) error {
		h.Aggregator.RunOnce(c.Context(), time.Now().UTC())

		summaries, err := h.Summaries.ListAll(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch summaries")
		}
		if summaries == nil {
			summaries = []weather.DailySummary{}
		}
		return c.JSON(summaries)
	})

	api.Get("/thresholds", func(c *fiber.Ctx) error {
		thresholds, err := h.Thresholds.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch thresholds")
		}
		if len(thresholds) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no thresholds defined for any city.")
		}

		// Re-check each configured city against its latest reading so a
		// tightened threshold takes effect without waiting for the next fetch.
		for _, th := range thresholds {
			obs, err := h.Observations.Latest(c.Context(), th.City)
			if err != nil {
				continue
			}
			h.Evaluator.Evaluate(c.Context(), th.City, obs.TempC, obs.HumidityPct, obs.WindSpeed)
		}

		return c.JSON(thresholds)
	})

	api.Get("/thresholds/:city", func(c *fiber.Ctx) error {
		city := c.Params("city")
		th, err := h.Thresholds.Get(c.Context(), city)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "thresholds not found for this city.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch thresholds")
		}
		return c.JSON(th)
	})

	api.Put("/thresholds/:city", func(c *fiber.Ctx) error {
		city := c.Params("city")

		var body thresholdBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		th, err := h.Thresholds.Upsert(c.Context(), weather.Threshold{
			City:           city,
			MaxTempC:       body.Temperature,
			MaxHumidityPct: body.Humidity,
			MaxWindSpeed:   body.WindSpeed,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store thresholds")
		}

		// Apply the new limits to the latest reading right away.
		if obs, err := h.Observations.Latest(c.Context(), city); err == nil {
			h.Evaluator.Evaluate(c.Context(), city, obs.TempC, obs.HumidityPct, obs.WindSpeed)
		}

		return c.JSON(th)
	})

	api.Get("/alerts", func(c *fiber.Ctx) error {
		alerts, err := h.Alerts.ListAll(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch alerts")
		}
		if alerts == nil {
			alerts = []weather.Alert{}
		}
		return c.JSON(alerts)
	})

	api.Get("/alerts/:city", func(c *fiber.Ctx) error {
		alerts, err := h.Alerts.ListByCity(c.Context(), c.Params("city"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch alerts")
		}
		if alerts == nil {
			alerts = []weather.Alert{}
		}
		return c.JSON(alerts)
	})

	api.Delete("/alerts/:id", func(c *fiber.Ctx) error {
		if err := h.Alerts.DeleteByID(c.Context(), c.Params("id")); err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "alert not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete alert")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// thresholdBody is the PUT /thresholds/:city request payload.
type thresholdBody struct {
	Temperature float64 `json:"temperature" validate:"gte=0"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`
	WindSpeed   float64 `json:"wind_speed" validate:"gte=0"`
}

// historyQuery holds query parameters for the historical endpoint.
type historyQuery struct {
	City string
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.City = c.Query("city")

	fromStr := c.Query("start")
	toStr := c.Query("end")
	if fromStr == "" || toStr == "" {
		return errors.New("start and end query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return validate.Struct(h)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
