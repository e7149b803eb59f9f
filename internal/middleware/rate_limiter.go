package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Protects the backend against abuse and keeps the app a polite client of
// the public geocoding and routing providers it proxies.

// GlobalRateLimiter - general limiter for all endpoints.
// 1000 requests per minute per IP.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many requests. Please try again in 1 minute.",
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// APIRateLimiter - limiter for the general API surface.
// 200 requests per minute (balance between usability and protection).
func APIRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "API rate limit exceeded",
				"retry_after": 60,
				"limit":       200,
				"window":      "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// GeocodeRateLimiter - limiter for endpoints that fan out to the public
// geocoding provider. Its usage policy is strict, so the proxy enforces a
// much lower ceiling than the rest of the API.
// 30 requests per minute per IP + endpoint.
func GeocodeRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Rate limit by IP + endpoint for better granularity
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Geocoding rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many geocoding requests. Please try again in 1 minute.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
