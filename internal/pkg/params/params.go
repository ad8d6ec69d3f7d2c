// Package params reads route and query parameters shared by the handlers.
package params

import (
	"strconv"

	"serviceloop-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UUID parses the named route parameter; a malformed value is a validation error.
func UUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + name)
	}
	return id, nil
}

// Limit reads ?limit=, falling back to def and capping at max.
func Limit(c *fiber.Ctx, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
