package uploads

import (
	uploadsvc "serviceloop-backend/internal/application/uploads"
	"serviceloop-backend/internal/middleware"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type imageRequest struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name"`
}

// Image POST /api/v1/uploads/image returns a signed upload URL and the public URL to
// store in image_url.
func (h *Handlers) Image(c *fiber.Ctx) error {
	var req imageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, uploadsvc.ErrFileNameMissing)
	}
	ticket, err := h.Service.SignImageUpload(c.UserContext(), middleware.CurrentIdentity(c), req.Kind, req.FileName)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Upload URL generated", ticket, nil)
}
