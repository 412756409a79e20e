package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"medinsight/internal/reports"
)

// ReportsIndexAction lists the available bundles.
func (h *Handler) ReportsIndexAction(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"bundles": reports.Bundles})
}

// ReportShowAction builds the bundle named in the path.
func (h *Handler) ReportShowAction(c *fiber.Ctx) error {
	name := c.Params("bundle")

	params, err := h.parseParams(c)
	if err != nil {
		return h.handleError(c, err)
	}

	bundle, err := h.assembler.Build(c.UserContext(), name, params)
	if err != nil {
		return h.handleError(c, err)
	}

	if meta := bundle.Metadata(); meta.Degraded() {
		h.logger.Warn("Serving degraded report",
			slog.String("bundle", name),
			slog.String("report_id", meta.ID))
	}

	return c.JSON(bundle)
}
