package middleware

import "github.com/gofiber/fiber/v2"

// HeadGuard answers HEAD requests with 200 and an empty body without running
// the route. Mail and chat link scanners probe callback links with HEAD.
func HeadGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodHead {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Next()
	}
}
