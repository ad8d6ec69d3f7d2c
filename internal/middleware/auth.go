package middleware

import (
	"strings"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userLocal     = "user"
	identityLocal = "identity"
)

// RequireAuth rejects requests without a session user or bearer identity.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentIdentity(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentIdentity returns the caller, preferring a verified bearer token over the session.
func CurrentIdentity(c *fiber.Ctx) *domain.Identity {
	if id, ok := c.Locals(identityLocal).(*domain.Identity); ok && id != nil {
		return id
	}
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	idStr, _ := m["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	email, _ := m["email"].(string)
	return &domain.Identity{ID: id, Email: strings.ToLower(email)}
}

// SetIdentity attaches a verified identity to the request.
func SetIdentity(c *fiber.Ctx, id *domain.Identity) {
	c.Locals(identityLocal, id)
}
