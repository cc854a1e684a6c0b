package ratelimit

import (
	"steam-chat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Middleware limits requests per authenticated steam ID, falling back to the
// client IP before authentication. Exhausted buckets get 429 JSON.
func Middleware(limiter *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if steamID, ok := c.Locals("steamid").(string); ok && steamID != "" {
			key = steamID
		}

		allowed, err := limiter.Allow(c.Context(), key)
		if err != nil {
			// Fail open but leave a trace.
			utils.LogError(err, "RateLimit")
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests",
			})
		}
		return c.Next()
	}
}
