package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/tariff"
	"github.com/yourorg/gensanfare/internal/validation"
)

// RoutingHandler serves stateless driving-route lookups with the fare the
// tariff would charge for them.
type RoutingHandler struct {
	resolver routing.Resolver
}

// NewRoutingHandler creates a new routing handler.
func NewRoutingHandler(resolver routing.Resolver) *RoutingHandler {
	return &RoutingHandler{resolver: resolver}
}

// Driving handles GET /api/route/driving?from_lat=X&from_lon=Y&to_lat=X&to_lon=Y
func (h *RoutingHandler) Driving(c *fiber.Ctx) error {
	fromLat := c.QueryFloat("from_lat", 0)
	fromLon := c.QueryFloat("from_lon", 0)
	toLat := c.QueryFloat("to_lat", 0)
	toLon := c.QueryFloat("to_lon", 0)

	if err := validation.ValidateCoordinatePair(fromLat, fromLon, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := validation.ValidateCoordinatePair(toLat, toLon, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	from := models.Coordinate{Lat: fromLat, Lon: fromLon}
	to := models.Coordinate{Lat: toLat, Lon: toLon}

	result := h.resolver.Resolve(c.Context(), []models.Coordinate{from, to})

	switch result.Status {
	case routing.StatusFound:
		quote, err := tariff.ComputeFare(tariff.ModeTrike, result.DistanceMeters/1000)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to compute fare",
			})
		}
		return c.JSON(fiber.Map{
			"status":           "found",
			"distance_meters":  result.DistanceMeters,
			"duration_seconds": result.DurationSeconds,
			"geometry":         result.Geometry,
			"quote":            quote,
		})

	case routing.StatusNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "not_found",
			"error":  "No route between the given points",
		})

	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": "provider_error",
			"error":  "Routing provider unavailable",
		})
	}
}
