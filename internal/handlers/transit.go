package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/transit"
)

// TransitHandler serves the fixed-route catalog.
type TransitHandler struct {
	catalog *transit.Catalog
}

// NewTransitHandler creates a new transit handler.
func NewTransitHandler(catalog *transit.Catalog) *TransitHandler {
	return &TransitHandler{catalog: catalog}
}

// List handles GET /api/routes
func (h *TransitHandler) List(c *fiber.Ctx) error {
	routes := h.catalog.List()

	summaries := make([]fiber.Map, 0, len(routes))
	for _, route := range routes {
		summaries = append(summaries, fiber.Map{
			"key":   route.Key,
			"name":  route.Name,
			"color": route.Color,
			"stops": len(route.Stops),
		})
	}

	return c.JSON(fiber.Map{
		"count":  len(summaries),
		"routes": summaries,
	})
}

// Get handles GET /api/routes/:key
func (h *TransitHandler) Get(c *fiber.Ctx) error {
	key := c.Params("key")

	route, ok := h.catalog.Get(key)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown route key",
			"key":   key,
		})
	}

	return c.JSON(route)
}
