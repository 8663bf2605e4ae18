package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case path == "/v1/zones":
			ttl = "public, max-age=3600" // Pricing table is near-static

		case strings.HasPrefix(path, "/v1/search"):
			ttl = "private, max-age=30" // Per-user position in query

		case strings.HasPrefix(path, "/v1/geocode"):
			ttl = "public, max-age=86400" // Addresses do not move

		case strings.HasPrefix(path, "/v1/stores/nearby"):
			ttl = "public, max-age=300" // 5 min for location queries

		case strings.HasPrefix(path, "/v1/delivery/quote"):
			ttl = "private, max-age=60" // Fees change with the zone table

		case path == "/v1/location":
			ttl = "no-store" // A position fix is momentary

		case strings.Contains(path, "/listings/"):
			ttl = "public, max-age=600" // 10 min for single listing

		case strings.Contains(path, "/stores/"):
			ttl = "public, max-age=600" // 10 min for single store

		case path == "/v1/stats":
			ttl = "public, max-age=60" // Catalog stats: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
