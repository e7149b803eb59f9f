package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/tariff"
)

// FareRequest is the body of POST /api/fare.
type FareRequest struct {
	Mode       string  `json:"mode"`
	DistanceKm float64 `json:"distance_km"`
}

// ComputeFare prices a distance under the city tariff without touching any
// session. Useful for the CLI and for clients that already know the distance.
func ComputeFare(c *fiber.Ctx) error {
	var req FareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.DistanceKm < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "distance_km must not be negative",
		})
	}

	quote, err := tariff.ComputeFare(tariff.Mode(req.Mode), req.DistanceKm)
	if err != nil {
		if errors.Is(err, tariff.ErrUnsupportedMode) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":           "Unsupported mode",
				"supported_modes": []string{string(tariff.ModeTrike), string(tariff.ModeBus), string(tariff.ModeJeep)},
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute fare",
		})
	}

	return c.JSON(quote)
}
