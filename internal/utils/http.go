package utils

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// QueryValues exposes the raw query string as url.Values, which the OpenID
// verifier needs verbatim (fiber's typed accessors drop duplicate keys).
func QueryValues(c *fiber.Ctx) (url.Values, error) {
	return url.ParseQuery(string(c.Request().URI().QueryString()))
}
