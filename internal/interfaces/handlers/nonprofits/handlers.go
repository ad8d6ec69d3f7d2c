package nonprofits

import (
	npsvc "serviceloop-backend/internal/application/nonprofits"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *npsvc.Service
}

// List GET /api/v1/nonprofits?category=
func (h *Handlers) List(c *fiber.Ctx) error {
	orgs, err := h.Service.List(c.UserContext(), c.Query("category"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organizations fetched", orgs, fiber.Map{"count": len(orgs)})
}

// Get GET /api/v1/nonprofits/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	detail, err := h.Service.Get(c.UserContext(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization fetched", detail, nil)
}

// Mine GET /api/v1/nonprofits/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	orgs, err := h.Service.MyOrganizations(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organizations fetched", orgs, nil)
}

// Membership GET /api/v1/nonprofits/:id/membership
func (h *Handlers) Membership(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	m, err := h.Service.Membership(c.UserContext(), middleware.CurrentIdentity(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Membership fetched", m, nil)
}

// Join POST /api/v1/nonprofits/:id/members
func (h *Handlers) Join(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.Join(c.UserContext(), middleware.CurrentIdentity(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	if res.AlreadyMember {
		return response.Success(c, "Already a member", res, nil)
	}
	return response.SuccessCreated(c, "Joined organization", res, nil)
}

// Leave DELETE /api/v1/nonprofits/:id/members
func (h *Handlers) Leave(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Leave(c.UserContext(), middleware.CurrentIdentity(c), orgID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Left organization", nil, nil)
}
