package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/xid"
)

const RequestIDHeader = "X-Stride-Request-ID"

// RequestID assigns each request an id, exposed both as a response header and
// in ctx.Locals for downstream log correlation.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		c.Locals("requestid", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
