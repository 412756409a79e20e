package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"medinsight/internal/metrics"
)

// RequestLogger logs every request once it has been handled.
// Dependencies are injected via the factory function.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Debug("Handled request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", statusOf(c, err)),
			slog.Duration("duration", time.Since(start)))
		return err
	}
}

// RequestMetrics counts requests per route template and status code.
func RequestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.RecordHTTPRequest(c.Route().Path, strconv.Itoa(statusOf(c, err)))
		return err
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
