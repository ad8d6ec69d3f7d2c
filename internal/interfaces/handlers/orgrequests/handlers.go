package orgrequests

import (
	reqsvc "serviceloop-backend/internal/application/orgrequests"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *reqsvc.Service
}

// Create POST /api/v1/org-requests
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in reqsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req, err := h.Service.Create(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Request submitted", req, nil)
}

// Mine GET /api/v1/org-requests/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	reqs, err := h.Service.ListMine(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Requests fetched", reqs, nil)
}

// Pending GET /api/v1/org-requests/pending
func (h *Handlers) Pending(c *fiber.Ctx) error {
	reqs, err := h.Service.ListPending(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pending requests fetched", reqs, fiber.Map{"count": len(reqs)})
}

// Approve POST /api/v1/org-requests/:id/approve
func (h *Handlers) Approve(c *fiber.Ctx) error {
	requestID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	out, err := h.Service.Approve(c.UserContext(), requestID, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Request approved", out, nil)
}

type rejectRequest struct {
	Comment string `json:"comment"`
}

// Reject POST /api/v1/org-requests/:id/reject with an optional comment.
func (h *Handlers) Reject(c *fiber.Ctx) error {
	requestID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body rejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	out, err := h.Service.Reject(c.UserContext(), requestID, middleware.CurrentIdentity(c), body.Comment)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Request rejected", out, nil)
}
