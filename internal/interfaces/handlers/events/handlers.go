package events

import (
	eventsvc "serviceloop-backend/internal/application/events"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/params"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// List GET /api/v1/events
func (h *Handlers) List(c *fiber.Ctx) error {
	events, err := h.Service.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Events fetched", events, fiber.Map{"count": len(events)})
}

// Get GET /api/v1/events/:id also reports whether the caller has signed up.
func (h *Handlers) Get(c *fiber.Ctx) error {
	eventID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	detail, err := h.Service.Get(c.UserContext(), eventID)
	if err != nil {
		return response.FromError(c, err)
	}
	signedUp := false
	if id := middleware.CurrentIdentity(c); id != nil {
		signedUp = h.Service.IsSignedUp(c.UserContext(), id, eventID)
	}
	return response.Success(c, "Event fetched", detail, fiber.Map{"is_signed_up": signedUp})
}

// Signup POST /api/v1/events/:id/signups
func (h *Handlers) Signup(c *fiber.Ctx) error {
	eventID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.Signup(c.UserContext(), middleware.CurrentIdentity(c), eventID)
	if err != nil {
		return response.FromError(c, err)
	}
	if res.AlreadyJoined {
		return response.Success(c, "Already signed up", res, nil)
	}
	return response.SuccessCreated(c, "Signed up for event", res, nil)
}

// Cancel DELETE /api/v1/events/:id/signups
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	eventID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.CancelSignup(c.UserContext(), middleware.CurrentIdentity(c), eventID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Signup cancelled", nil, nil)
}
