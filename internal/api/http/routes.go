package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/stopboard/internal/transit"
	"github.com/i474232898/stopboard/internal/weather"
)

var validate = validator.New()

const defaultHistoryLimit = 16

// Reader is the consumer read side of the board.
type Reader interface {
	GetTransitSnapshot() (transit.Snapshot, bool)
	GetWeatherSnapshot() (weather.Snapshot, bool)
	TransitHistory(limit int) ([]transit.Snapshot, bool)
	WeatherHistory(limit int) ([]weather.Snapshot, bool)
}

// snapshotResponse marks a copy served because the store was busy.
type snapshotResponse struct {
	Stale    bool `json:"stale"`
	Snapshot any  `json:"snapshot"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. metrics may be
// nil.
func RegisterRoutes(app *fiber.App, board Reader, metrics http.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "stopboard",
		})
	})

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/transit", func(c *fiber.Ctx) error {
		snap, ok := board.GetTransitSnapshot()
		return c.JSON(snapshotResponse{Stale: !ok, Snapshot: snap})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		snap, ok := board.GetWeatherSnapshot()
		return c.JSON(snapshotResponse{Stale: !ok, Snapshot: snap})
	})

	v1.Get("/transit/history", func(c *fiber.Ctx) error {
		q, err := parseHistoryQuery(c)
		if err != nil {
			return err
		}
		snaps, ok := board.TransitHistory(q.Limit)
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "transit store busy, retry")
		}
		return c.JSON(fiber.Map{"limit": q.Limit, "snapshots": snaps})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		q, err := parseHistoryQuery(c)
		if err != nil {
			return err
		}
		snaps, ok := board.WeatherHistory(q.Limit)
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "weather store busy, retry")
		}
		return c.JSON(fiber.Map{"limit": q.Limit, "snapshots": snaps})
	})
}

// historyQuery holds query parameters for the history endpoints.
type historyQuery struct {
	Limit int `validate:"gte=1,lte=64"`
}

func parseHistoryQuery(c *fiber.Ctx) (historyQuery, error) {
	q := historyQuery{Limit: defaultHistoryLimit}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 64")
	}
	return q, nil
}
