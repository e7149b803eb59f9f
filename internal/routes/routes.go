package routes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/geocoding"
	"github.com/yourorg/gensanfare/internal/handlers"
	"github.com/yourorg/gensanfare/internal/middleware"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/transit"
	"github.com/yourorg/gensanfare/internal/trip"
)

// Deps carries everything the HTTP surface needs. DB may be nil when the
// backend runs on the built-in catalog.
type Deps struct {
	DB       *sql.DB
	Catalog  *transit.Catalog
	Geocoder *geocoding.Client
	Router   routing.Resolver
	Manager  *trip.Manager
}

func Register(app *fiber.App, deps Deps) {
	// ============================================================================
	// PUBLIC API (endpoints for the frontend)
	// ============================================================================
	api := app.Group("/api")

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Catalog, deps.Manager)
	geocodingHandler := handlers.NewGeocodingHandler(deps.Geocoder)
	routingHandler := handlers.NewRoutingHandler(deps.Router)
	transitHandler := handlers.NewTransitHandler(deps.Catalog)
	sessionHandler := handlers.NewSessionHandler(deps.Manager, deps.Geocoder)

	// Health check (no rate limiting)
	api.Get("/health", healthHandler.Health)
	api.Get("/status", healthHandler.Status)

	// ============================================================================
	// TARIFF
	// ============================================================================
	api.Post("/fare", handlers.ComputeFare)
	// POST /api/fare
	// Body: {mode, distance_km}
	// Prices a known distance under the city tariff

	// ============================================================================
	// GEOCODING PROXY (strict rate limiting - public provider policy)
	// ============================================================================
	geocode := api.Group("/geocode")
	geocode.Use(middleware.GeocodeRateLimiter()) // 30 req/min

	geocode.Get("/search", geocodingHandler.Search)
	// GET /api/geocode/search?q=KCC&limit=5
	// Forward search, scoped to the configured locality

	geocode.Get("/reverse", geocodingHandler.Reverse)
	// GET /api/geocode/reverse?lat=X&lon=Y
	// Street-level label, coordinate fallback on failure

	// ============================================================================
	// ROUTING
	// ============================================================================
	api.Get("/route/driving", middleware.APIRateLimiter(), routingHandler.Driving)
	// GET /api/route/driving?from_lat=X&from_lon=Y&to_lat=X&to_lon=Y
	// Driving route with geometry and the trike fare for its distance

	// ============================================================================
	// FIXED-ROUTE CATALOG
	// ============================================================================
	api.Get("/routes", transitHandler.List)
	api.Get("/routes/:key", transitHandler.Get)

	// ============================================================================
	// SESSIONS (interactive estimation)
	// ============================================================================
	session := api.Group("/session")
	session.Use(middleware.APIRateLimiter()) // 200 req/min

	session.Post("/", sessionHandler.Create)
	session.Get("/:id", sessionHandler.Get)
	session.Delete("/:id", sessionHandler.Delete)

	session.Post("/:id/mode", sessionHandler.SwitchMode)
	// Body: {mode: "trike" | "busjeep"}

	// Trike mode: endpoint placement
	session.Post("/:id/point", sessionHandler.Tap)
	session.Post("/:id/start", sessionHandler.SetStart)
	session.Post("/:id/end", sessionHandler.SetEnd)
	session.Post("/:id/locate", sessionHandler.Locate)
	session.Post("/:id/reset", sessionHandler.Reset)

	// Bus/jeep mode: fixed-route selection
	session.Post("/:id/route/:key", sessionHandler.SelectRoute)
	session.Delete("/:id/route", sessionHandler.ClearRoute)

	// ============================================================================
	// WEBSOCKET STREAM (overlay + display events per session)
	// ============================================================================
	app.Use("/ws/session/:id", sessionHandler.RequireSession)
	app.Get("/ws/session/:id", sessionHandler.Stream())
}
