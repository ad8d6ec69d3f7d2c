package health

import (
	healthsvc "serviceloop-backend/internal/application/health"
	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const errorLogLimit = 50

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Readiness      *database.Readiness
	HealthAdminKey string
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := healthsvc.Collect(c.UserContext(), h.Rdb, h.DB, h.Readiness)
	return c.JSON(fiber.Map{
		"service":      "serviceloop-api",
		"status":       report.Status,
		"runtime":      report.Runtime,
		"traffic":      report.Traffic,
		"dependencies": report.Dependencies,
		"schema":       report.Schema,
	})
}

// Reset GET /reset?key=HEALTH_ADMIN_KEY clears the request counters.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if err := healthsvc.ResetTraffic(c.UserContext(), h.Rdb); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// Errors GET /health/errors?key= returns the most recent failed requests.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	entries, err := healthsvc.RecentErrors(c.UserContext(), h.Rdb, errorLogLimit)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(entries)
}
