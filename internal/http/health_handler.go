package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	DBStatus     string    `json:"db_status"`
	BreakerState string    `json:"breaker_state"`
}

// HealthIndexAction handles the health check endpoint
func (h *Handler) HealthIndexAction(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.db.Ping(c.UserContext()); err != nil {
		dbStatus = "error"
		h.logger.Error("Database ping failed", slog.Any("error", err))
	}

	health := HealthStatus{
		Status:       "ok",
		Timestamp:    h.ranges.Now(),
		DBStatus:     dbStatus,
		BreakerState: h.breaker.BreakerState(),
	}

	if dbStatus != "ok" || health.BreakerState == "open" {
		health.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(health)
	}

	return c.JSON(health)
}
