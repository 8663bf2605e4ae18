package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware computes a weak ETag from the response body
// and returns 304 Not Modified if the client already has it.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Process request first
		if err := c.Next(); err != nil {
			return err
		}

		// Only apply to successful GET responses with a body
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != 200 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		// A handler that set its own ETag wins.
		if len(c.Response().Header.Peek("ETag")) > 0 {
			return nil
		}

		// Weak ETag: body length plus the first 8 bytes of the SHA-256,
		// so truncation collisions differ in the length prefix.
		h := sha256.Sum256(body)
		etag := fmt.Sprintf(`W/"%x-%s"`, len(body), hex.EncodeToString(h[:8]))

		c.Set("ETag", etag)

		// Check If-None-Match
		ifNoneMatch := c.Get("If-None-Match")
		if ifNoneMatch == etag {
			c.Status(304)
			c.Response().ResetBody()
			return nil
		}

		return nil
	}
}
