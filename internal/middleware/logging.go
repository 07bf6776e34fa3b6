package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/teamforge/backend/pkg/logger"
)

// RequestLogger emits one structured event per request with latency and
// status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.IP(),
		}

		if user := GetCurrentUser(c); user != nil {
			logger.InfoWithUser(user.ID.String(), "http_request", fields)
		} else {
			logger.Info("http_request", fields)
		}
		return err
	}
}
