// Package http exposes report bundles over fiber.
package http

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"medinsight/internal/failures"
	"medinsight/internal/reports"
	"medinsight/internal/timeframe"
	"medinsight/internal/validation"
)

const (
	errInvalidQuery  = "Invalid query parameters"
	errInternalError = "Internal server error"
)

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes the store circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// Handler serves the report, export and health endpoints.
type Handler struct {
	assembler *reports.Assembler
	ranges    *timeframe.RangeParser
	db        Pinger
	breaker   BreakerReporter
	logger    *slog.Logger
}

func NewHandler(assembler *reports.Assembler, ranges *timeframe.RangeParser, db Pinger, breaker BreakerReporter, logger *slog.Logger) *Handler {
	return &Handler{
		assembler: assembler,
		ranges:    ranges,
		db:        db,
		breaker:   breaker,
		logger:    logger,
	}
}

// ReportQuery holds the query parameters shared by every bundle.
type ReportQuery struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Category string `query:"category" validate:"category"`
	Limit    *int   `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Window   *int   `query:"window" validate:"omitempty,gte=1,lte=365"`
}

func (h *Handler) parseParams(c *fiber.Ctx) (reports.Params, error) {
	var q ReportQuery
	if err := c.QueryParser(&q); err != nil {
		h.logger.Debug("Failed to parse report query", slog.Any("error", err))
		return reports.Params{}, fiber.NewError(fiber.StatusBadRequest, errInvalidQuery)
	}
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))

	if err := validation.ValidateStruct(q); err != nil {
		return reports.Params{}, err
	}

	r, err := h.ranges.ParseRange(q.From, q.To)
	if err != nil {
		return reports.Params{}, err
	}

	return reports.Params{
		Range:      r,
		Category:   q.Category,
		Limit:      q.Limit,
		WindowDays: q.Window,
	}, nil
}

func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var validationErr *validation.RequestValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  validationErr.Error(),
			"fields": validationErr.Fields,
		})
	case errors.Is(err, failures.ErrInvalidRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, reports.ErrUnknownBundle):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	h.logger.Error("Request failed",
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errInternalError})
}
