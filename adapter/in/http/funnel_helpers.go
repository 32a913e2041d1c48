package http

import (
	"strings"

	"funnel_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes a JSON body into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return apperr.BadRequest("request body is required")
	}
	if err := c.BodyParser(dest); err != nil {
		return apperr.BadRequest("invalid request body").WithError(err)
	}
	return nil
}

// queryLimit reads ?limit. Zero means the service default.
func queryLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return 0
	}
	return limit
}

func queryString(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.Query(key))
}
