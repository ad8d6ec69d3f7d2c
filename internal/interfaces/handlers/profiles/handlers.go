package profiles

import (
	profilesvc "serviceloop-backend/internal/application/profiles"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *profilesvc.Service
}

// Dashboard GET /api/v1/me/dashboard
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	d, err := h.Service.Dashboard(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Dashboard fetched", d, nil)
}
