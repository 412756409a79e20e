package http

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"medinsight/internal/export"
	"medinsight/internal/timeframe"
)

// ExportShowAction answers the bundle's table as a CSV attachment.
func (h *Handler) ExportShowAction(c *fiber.Ctx) error {
	name := c.Params("bundle")

	params, err := h.parseParams(c)
	if err != nil {
		return h.handleError(c, err)
	}

	bundle, err := h.assembler.Build(c.UserContext(), name, params)
	if err != nil {
		return h.handleError(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, bundle.Table()); err != nil {
		return h.handleError(c, fmt.Errorf("failed to write %s export: %w", name, err))
	}

	filename := fmt.Sprintf("%s-%s.csv", name, h.ranges.Now().Format(timeframe.DateLayout))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
