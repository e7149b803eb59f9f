package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/gensanfare/internal/geocoding"
	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/transit"
	"github.com/yourorg/gensanfare/internal/trip"
	"github.com/yourorg/gensanfare/internal/validation"
)

// SessionHandler drives the interactive fare-estimation sessions: endpoint
// taps, searches, mode switches, route selections, and the websocket stream
// that mirrors each session onto its map.
type SessionHandler struct {
	manager  *trip.Manager
	geocoder *geocoding.Client
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *trip.Manager, geocoder *geocoding.Client) *SessionHandler {
	return &SessionHandler{manager: manager, geocoder: geocoder}
}

// Create handles POST /api/session
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	id, controller, _ := h.manager.Create()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": id,
		"mode":       controller.Mode(),
		"stream":     "/ws/session/" + id,
	})
}

// Get handles GET /api/session/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	return c.JSON(fiber.Map{
		"session_id":   c.Params("id"),
		"mode":         controller.Mode(),
		"trip":         controller.Session().Snapshot(),
		"active_route": controller.Selection().Active(),
	})
}

// Delete handles DELETE /api/session/:id
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if !h.manager.Remove(c.Params("id")) {
		return sessionNotFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SwitchMode handles POST /api/session/:id/mode
// Body: {"mode": "trike" | "busjeep"}
func (h *SessionHandler) SwitchMode(c *fiber.Ctx) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := controller.SwitchMode(trip.Mode(req.Mode)); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(fiber.Map{"mode": controller.Mode()})
}

// endpointRequest is the body of every endpoint-placing operation: either a
// coordinate pair or a free-text query to forward-geocode.
type endpointRequest struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Query string  `json:"query"`
}

var errNoResults = errors.New("no results for query")

func (h *SessionHandler) parseCoord(c *fiber.Ctx) (models.Coordinate, error) {
	var req endpointRequest
	if err := c.BodyParser(&req); err != nil {
		return models.Coordinate{}, errors.New("invalid request body")
	}
	if err := validation.ValidateCoordinatePair(req.Lat, req.Lon, ""); err != nil {
		return models.Coordinate{}, err
	}
	return models.Coordinate{Lat: req.Lat, Lon: req.Lon}, nil
}

// resolveEndpoint accepts a coordinate body or a query body; a query is
// forward-geocoded to its first hit.
func (h *SessionHandler) resolveEndpoint(c *fiber.Ctx) (models.Coordinate, error) {
	var req endpointRequest
	if err := c.BodyParser(&req); err != nil {
		return models.Coordinate{}, errors.New("invalid request body")
	}

	if req.Query != "" {
		coord, found := h.geocoder.ForwardLocate(c.Context(), req.Query)
		if !found {
			return models.Coordinate{}, errNoResults
		}
		return coord, nil
	}

	if err := validation.ValidateCoordinatePair(req.Lat, req.Lon, ""); err != nil {
		return models.Coordinate{}, err
	}
	return models.Coordinate{Lat: req.Lat, Lon: req.Lon}, nil
}

// Tap handles POST /api/session/:id/point — map-click semantics.
func (h *SessionHandler) Tap(c *fiber.Ctx) error {
	return h.trikeOp(c, func(controller *trip.Controller, coord models.Coordinate) error {
		return controller.Tap(coord)
	})
}

// SetStart handles POST /api/session/:id/start
// Body: {lat, lon} or {query} (forward-geocoded).
func (h *SessionHandler) SetStart(c *fiber.Ctx) error {
	return h.endpointOp(c, func(controller *trip.Controller, coord models.Coordinate) error {
		return controller.SetStart(coord)
	})
}

// SetEnd handles POST /api/session/:id/end
// Body: {lat, lon} or {query} (forward-geocoded).
func (h *SessionHandler) SetEnd(c *fiber.Ctx) error {
	return h.endpointOp(c, func(controller *trip.Controller, coord models.Coordinate) error {
		return controller.SetEnd(coord)
	})
}

// Locate handles POST /api/session/:id/locate — a geolocation fix becomes the
// start point.
func (h *SessionHandler) Locate(c *fiber.Ctx) error {
	return h.trikeOp(c, func(controller *trip.Controller, coord models.Coordinate) error {
		return controller.Locate(coord)
	})
}

// trikeOp runs a coordinate-only trike operation.
func (h *SessionHandler) trikeOp(c *fiber.Ctx, op func(*trip.Controller, models.Coordinate) error) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	coord, err := h.parseCoord(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return h.applyTrikeOp(c, controller, coord, op)
}

// endpointOp runs a trike operation whose target may arrive as a coordinate
// or as a search query.
func (h *SessionHandler) endpointOp(c *fiber.Ctx, op func(*trip.Controller, models.Coordinate) error) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	coord, err := h.resolveEndpoint(c)
	if err != nil {
		if errors.Is(err, errNoResults) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No results for query",
			})
		}
		return badRequest(c, err.Error())
	}

	return h.applyTrikeOp(c, controller, coord, op)
}

func (h *SessionHandler) applyTrikeOp(c *fiber.Ctx, controller *trip.Controller, coord models.Coordinate, op func(*trip.Controller, models.Coordinate) error) error {
	if err := op(controller, coord); err != nil {
		return h.opError(c, err)
	}

	return c.JSON(fiber.Map{
		"state": controller.Session().State(),
		"coord": coord,
	})
}

// Reset handles POST /api/session/:id/reset
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	if err := controller.Reset(); err != nil {
		return h.opError(c, err)
	}

	return c.JSON(fiber.Map{"state": trip.StateEmpty})
}

// SelectRoute handles POST /api/session/:id/route/:key
func (h *SessionHandler) SelectRoute(c *fiber.Ctx) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	if err := controller.SelectRoute(c.Context(), c.Params("key")); err != nil {
		if errors.Is(err, transit.ErrUnknownRoute) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown route key",
				"key":   c.Params("key"),
			})
		}
		return h.opError(c, err)
	}

	return c.JSON(fiber.Map{
		"active_route": controller.Selection().Active(),
	})
}

// ClearRoute handles DELETE /api/session/:id/route
func (h *SessionHandler) ClearRoute(c *fiber.Ctx) error {
	controller, ok := h.controller(c)
	if !ok {
		return sessionNotFound(c)
	}

	if err := controller.ClearRoute(); err != nil {
		return h.opError(c, err)
	}

	return c.JSON(fiber.Map{"active_route": ""})
}

// Stream handles the websocket upgrade at /ws/session/:id. The connection
// receives every overlay and display event for the session until it closes
// or the session is evicted.
func (h *SessionHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals("session_id").(string)

		_, hub, ok := h.manager.Get(id)
		if !ok {
			conn.Close()
			return
		}
		hub.HandleConn(conn)
	})
}

// RequireSession is the HTTP-side guard before the websocket upgrade.
func (h *SessionHandler) RequireSession(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id := c.Params("id")
	if _, _, ok := h.manager.Get(id); !ok {
		return sessionNotFound(c)
	}
	c.Locals("session_id", id)
	return c.Next()
}

func (h *SessionHandler) controller(c *fiber.Ctx) (*trip.Controller, bool) {
	controller, _, ok := h.manager.Get(c.Params("id"))
	return controller, ok
}

func (h *SessionHandler) opError(c *fiber.Ctx, err error) error {
	if errors.Is(err, trip.ErrWrongMode) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func sessionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Unknown session",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
