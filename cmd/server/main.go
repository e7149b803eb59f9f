package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/gensanfare/internal/cache"
	appdb "github.com/yourorg/gensanfare/internal/db"
	"github.com/yourorg/gensanfare/internal/geocoding"
	"github.com/yourorg/gensanfare/internal/middleware"
	"github.com/yourorg/gensanfare/internal/routes"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/transit"
	"github.com/yourorg/gensanfare/internal/trip"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.GlobalRateLimiter())

	cache.InitCaches()

	// ============================================================================
	// ROUTE CATALOG - database when configured, built-in data otherwise
	// ============================================================================
	catalog := transit.BuiltIn()
	sqlDB, err := appdb.Connect()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		log.Printf("⚠️  Database unavailable: %v", err)
		log.Println("   Serving the built-in route catalog")
		sqlDB = nil
	} else {
		if err := appdb.EnsureSchema(sqlDB); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		if err := appdb.Seed(sqlDB); err != nil {
			log.Fatalf("seed routes: %v", err)
		}
		loaded, err := transit.Load(sqlDB)
		if err != nil {
			log.Printf("⚠️  Loading routes from database failed: %v", err)
			log.Println("   Serving the built-in route catalog")
		} else {
			catalog = loaded
			log.Printf("✅ Loaded %d routes from database", catalog.Len())
		}
	}

	// ============================================================================
	// PROVIDER CLIENTS AND SESSIONS
	// ============================================================================
	router := routing.NewClient(cache.RouteCache)
	geocoder := geocoding.NewClient(cache.GeocodeCache)
	manager := trip.NewManager(catalog, router, geocoder)

	routes.Register(app, routes.Deps{
		DB:       sqlDB,
		Catalog:  catalog,
		Geocoder: geocoder,
		Router:   router,
		Manager:  manager,
	})

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Termination signal received, shutting down...")

		manager.Stop()
		cache.StopCaches()
		if sqlDB != nil {
			sqlDB.Close()
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error shutting down server: %v", err)
		}

		log.Println("✅ Server stopped cleanly")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server listening on :%s", port)
	log.Println("📍 Available endpoints:")
	log.Println("   POST /api/fare                    - Price a distance under the tariff")
	log.Println("   GET  /api/geocode/search          - Forward search (locality-scoped)")
	log.Println("   GET  /api/geocode/reverse         - Street-level label for a point")
	log.Println("   GET  /api/route/driving           - Driving route + trike fare")
	log.Println("   GET  /api/routes                  - Fixed bus/jeep routes")
	log.Println("   POST /api/session                 - Start an interactive session")
	log.Println("   GET  /ws/session/:id              - Overlay/display event stream")
	log.Println("")
	log.Println("💡 Press Ctrl+C to stop")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
