package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Timezone    string    `json:"timezone"`
}

// HealthCheck reports liveness along with the timezone used to decide
// which portions are overdue.
func HealthCheck(name, env string, location *time.Location) fiber.Handler {
	if location == nil {
		location = time.UTC
	}
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     name,
			Environment: env,
			Timezone:    location.String(),
		})
	}
}
