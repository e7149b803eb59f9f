package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/geocoding"
	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/validation"
)

// GeocodingHandler proxies the geocoding provider with caching and locality
// scoping applied server-side.
type GeocodingHandler struct {
	client *geocoding.Client
}

// NewGeocodingHandler creates a new geocoding handler.
func NewGeocodingHandler(client *geocoding.Client) *GeocodingHandler {
	return &GeocodingHandler{client: client}
}

// Search handles GET /api/geocode/search?q=...&limit=5
func (h *GeocodingHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	limit := c.QueryInt("limit", 5)

	results, err := h.client.Search(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Geocoding provider unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// Reverse handles GET /api/geocode/reverse?lat=...&lon=...
func (h *GeocodingHandler) Reverse(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)

	if err := validation.ValidateCoordinatePair(lat, lon, ""); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	coord := models.Coordinate{Lat: lat, Lon: lon}
	// ReverseLabel never fails outward; the worst case is the coordinate
	// fallback label.
	label := h.client.ReverseLabel(c.Context(), coord)

	return c.JSON(fiber.Map{
		"lat":   lat,
		"lon":   lon,
		"label": label,
	})
}
