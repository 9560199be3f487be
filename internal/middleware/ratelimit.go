package middleware

import (
	"padelcentar/internal/ratelimit"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RateLimit rejects requests with 429 once limiter denies the client IP.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, allowing request")
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts, try again later",
			})
		}
		return c.Next()
	}
}
