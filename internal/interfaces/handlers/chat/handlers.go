package chat

import (
	"errors"

	chatsvc "serviceloop-backend/internal/application/chat"
	"serviceloop-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the chat proxy. Responses are {reply} or {error}, not the API envelope.
type Handlers struct {
	Service *chatsvc.Service
}

// Reply POST /api/v1/chat. A missing key is reported before the body is validated.
func (h *Handlers) Reply(c *fiber.Ctx) error {
	if !h.Service.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": chatsvc.ErrNotConfigured.Error()})
	}
	req, err := chatsvc.ParseRequest(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	reply, err := h.Service.Reply(c.UserContext(), req, middleware.CurrentIdentity(c))
	if err != nil {
		msg := chatsvc.ErrUpstream.Error()
		if errors.Is(err, chatsvc.ErrNotConfigured) {
			msg = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
	}
	return c.JSON(fiber.Map{"reply": reply})
}
