package handlers

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/gensanfare/internal/cache"
	"github.com/yourorg/gensanfare/internal/transit"
	"github.com/yourorg/gensanfare/internal/trip"
)

// HealthResponse is the system health report.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// HealthHandler reports the state of the backend and its dependencies.
type HealthHandler struct {
	db        *sql.DB
	catalog   *transit.Catalog
	manager   *trip.Manager
	startTime time.Time
}

// NewHealthHandler creates a new health handler. db may be nil when the
// backend runs without a database.
func NewHealthHandler(db *sql.DB, catalog *transit.Catalog, manager *trip.Manager) *HealthHandler {
	return &HealthHandler{
		db:        db,
		catalog:   catalog,
		manager:   manager,
		startTime: time.Now(),
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: Database
	// ============================================================================
	if h.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		// Running on the built-in catalog is a supported configuration.
		services["database"] = "not_configured"
	}

	// ============================================================================
	// CHECK: Route catalog
	// ============================================================================
	if h.catalog.Len() == 0 {
		services["route_catalog"] = "empty"
		overall = "degraded"
	} else {
		services["route_catalog"] = "healthy"
	}

	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}

// Status handles GET /api/status - the dashboard view of the running system.
func (h *HealthHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"sessions":       h.manager.Count(),
		"routes":         h.catalog.Len(),
		"caches":         cache.GetAllCacheStats(),
	})
}
