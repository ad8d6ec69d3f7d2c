package orgadmin

import (
	"encoding/json"

	forumsvc "serviceloop-backend/internal/application/forum"
	adminsvc "serviceloop-backend/internal/application/orgadmin"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the organization dashboard under /api/v1/orgs.
type Handlers struct {
	Service *adminsvc.Service
	Forum   *forumsvc.Service
}

// MineAdmin GET /api/v1/orgs/mine-admin
func (h *Handlers) MineAdmin(c *fiber.Ctx) error {
	orgs, err := h.Service.GetMyAdminOrganizations(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organizations fetched", orgs, nil)
}

// Admins GET /api/v1/orgs/:id/admins
func (h *Handlers) Admins(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	admins, err := h.Service.GetOrgAdmins(c.UserContext(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Admins fetched", admins, nil)
}

type addAdminRequest struct {
	Email string `json:"email"`
}

// AddAdmin POST /api/v1/orgs/:id/admins
func (h *Handlers) AddAdmin(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req addAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	userID, err := h.Service.AddAdminByEmail(c.UserContext(), req.Email, orgID, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Admin added", fiber.Map{"user_id": userID}, nil)
}

// RemoveAdmin DELETE /api/v1/orgs/:id/admins/:userId
func (h *Handlers) RemoveAdmin(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	userID, err := params.UUID(c, "userId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.RemoveAdmin(c.UserContext(), userID, orgID, middleware.CurrentIdentity(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Admin removed", nil, nil)
}

// Members GET /api/v1/orgs/:id/members
func (h *Handlers) Members(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	members, err := h.Service.GetOrgMembers(c.UserContext(), orgID, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Members fetched", members, fiber.Map{"count": len(members)})
}

// RemoveMember DELETE /api/v1/orgs/:id/members/:userId
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	userID, err := params.UUID(c, "userId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.RemoveMember(c.UserContext(), userID, orgID, middleware.CurrentIdentity(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member removed", nil, nil)
}

// Update PATCH /api/v1/orgs/:id with any of name, category, mission, contact_email, image_url.
func (h *Handlers) Update(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var updates map[string]interface{}
	if err := json.Unmarshal(c.Body(), &updates); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	res, err := h.Service.UpdateOrgDetails(c.UserContext(), orgID, updates, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization updated", res, nil)
}

// Stats GET /api/v1/orgs/:id/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats fetched", h.Service.GetOrgStats(c.UserContext(), orgID), nil)
}

// Events GET /api/v1/orgs/:id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	events, err := h.Service.GetOrgEvents(c.UserContext(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Events fetched", events, nil)
}

// CreateEvent POST /api/v1/orgs/:id/events
func (h *Handlers) CreateEvent(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in adminsvc.EventInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	event, err := h.Service.CreateEvent(c.UserContext(), orgID, in, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Event created", event, nil)
}

// DeleteEvent DELETE /api/v1/orgs/:id/events/:eventId
func (h *Handlers) DeleteEvent(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	eventID, err := params.UUID(c, "eventId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.DeleteOrgEvent(c.UserContext(), eventID, orgID, middleware.CurrentIdentity(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Event deleted", nil, nil)
}

// Posts GET /api/v1/orgs/:id/posts
func (h *Handlers) Posts(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	posts, err := h.Forum.GetOrgPosts(c.UserContext(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Posts fetched", posts, nil)
}

// DeletePost DELETE /api/v1/orgs/:id/posts/:postId
func (h *Handlers) DeletePost(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	postID, err := params.UUID(c, "postId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.DeleteOrgPost(c.UserContext(), postID, orgID, middleware.CurrentIdentity(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Post deleted", nil, nil)
}
