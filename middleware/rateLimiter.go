package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// WriteRateLimiter rejects requests once more than perSecond requests per
// second (with an equal burst) have been admitted. perSecond <= 0 disables
// the limit.
func WriteRateLimiter(perSecond int) fiber.Handler {
	if perSecond <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), perSecond)
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many write requests, slow down"})
		}
		return c.Next()
	}
}
