package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zivkovicn/vestnik/internal/logger"
)

// ingestTokenFrom extracts the shared secret from the places schedulers
// commonly put it: query params token/secret/pass, the x-ingest-token
// header, or an Authorization bearer token.
func ingestTokenFrom(c *fiber.Ctx) string {
	for _, param := range []string{"token", "secret", "pass"} {
		if v := c.Query(param); v != "" {
			return v
		}
	}
	if v := c.Get("x-ingest-token"); v != "" {
		return v
	}
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
	}
	return ""
}

// IngestAuth guards the ingestion trigger with a shared secret. Rejection
// happens before any pipeline work begins.
func IngestAuth(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			logger.Get().Error().Msg("Ingest token not configured, rejecting trigger")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "ingest trigger disabled",
			})
		}

		supplied := ingestTokenFrom(c)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
			logger.Get().Warn().
				Str("ip", c.IP()).
				Str("path", c.Path()).
				Msg("Ingest trigger with invalid token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "invalid or missing token",
			})
		}

		return c.Next()
	}
}

// AdminOnly is a middleware that checks if the request is from an admin
func AdminOnly(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Admin access attempt without API key")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is required",
			})
		}

		if adminKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) != 1 {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Unauthorized admin access attempt")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		return c.Next()
	}
}
