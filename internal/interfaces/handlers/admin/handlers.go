package admin

import (
	adminsvc "serviceloop-backend/internal/application/admin"
	"serviceloop-backend/internal/application/auditlog"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the platform admin dashboard. The group is guarded by
// RequireSuperAdmin and the service checks again.
type Handlers struct {
	Service *adminsvc.Service
}

// Metrics GET /api/v1/admin/metrics
func (h *Handlers) Metrics(c *fiber.Ctx) error {
	m, err := h.Service.GetSystemMetrics(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Metrics fetched", m, nil)
}

// Users GET /api/v1/admin/users
func (h *Handlers) Users(c *fiber.Ctx) error {
	users, err := h.Service.GetAllUsersWithStats(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Users fetched", users, fiber.Map{"count": len(users)})
}

// Logs GET /api/v1/admin/logs?limit=
func (h *Handlers) Logs(c *fiber.Ctx) error {
	limit := params.Limit(c, auditlog.DefaultLimit, auditlog.MaxLimit)
	logs, err := h.Service.GetAdminLogs(c.UserContext(), middleware.CurrentIdentity(c), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Logs fetched", logs, nil)
}

// Orgs GET /api/v1/admin/orgs
func (h *Handlers) Orgs(c *fiber.Ctx) error {
	orgs, err := h.Service.GetAllOrganizations(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organizations fetched", orgs, fiber.Map{"count": len(orgs)})
}

// DeleteOrg DELETE /api/v1/admin/orgs/:id
func (h *Handlers) DeleteOrg(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.DeleteOrganization(c.UserContext(), orgID, middleware.CurrentIdentity(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization deleted", nil, nil)
}

func (h *Handlers) relation(c *fiber.Ctx, msg string, fn func(userID, orgID uuid.UUID) error) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	userID, err := params.UUID(c, "userId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := fn(userID, orgID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, msg, fiber.Map{"user_id": userID, "nonprofit_id": orgID}, nil)
}

// RemoveMember DELETE /api/v1/admin/orgs/:id/members/:userId
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	return h.relation(c, "User removed from organization", func(userID, orgID uuid.UUID) error {
		return h.Service.RemoveUserFromOrg(c.UserContext(), userID, orgID, middleware.CurrentIdentity(c))
	})
}

// Promote POST /api/v1/admin/orgs/:id/admins/:userId
func (h *Handlers) Promote(c *fiber.Ctx) error {
	return h.relation(c, "User promoted to admin", func(userID, orgID uuid.UUID) error {
		return h.Service.PromoteToOrgAdmin(c.UserContext(), userID, orgID, middleware.CurrentIdentity(c))
	})
}

// Demote DELETE /api/v1/admin/orgs/:id/admins/:userId
func (h *Handlers) Demote(c *fiber.Ctx) error {
	return h.relation(c, "Admin removed", func(userID, orgID uuid.UUID) error {
		return h.Service.DemoteOrgAdmin(c.UserContext(), userID, orgID, middleware.CurrentIdentity(c))
	})
}
