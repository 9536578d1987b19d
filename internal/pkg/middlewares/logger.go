package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Logger logs one access line per request with the correlation fields.
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		reqID, _ := c.Locals("requestid").(string)
		log.Info().
			Str("component", "httpreq").
			Str("request_id", reqID).
			Str("method", c.Method()).
			Str("url", c.Path()).
			Int("status", c.Response().StatusCode()).
			Int("size", len(c.Response().Body())).
			Dur("duration", time.Since(start)).
			Msg("received request")

		return err
	}
}
