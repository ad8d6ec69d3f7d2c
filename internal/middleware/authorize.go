package middleware

import (
	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireSuperAdmin guards whole route groups. Services repeat the check themselves.
func RequireSuperAdmin(resolver *roles.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := resolver.RequireSuperAdmin(CurrentIdentity(c)); err != nil {
			return response.FromError(c, err)
		}
		return c.Next()
	}
}
