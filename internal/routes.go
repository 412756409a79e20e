package internal

import (
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medinsight/internal/config"
	"medinsight/internal/http"
	"medinsight/internal/http/middleware"
)

// NewServer creates the fiber app with the global middleware and every route.
func NewServer(cfg *config.Config, logger *slog.Logger, h *http.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadTimeout:           cfg.StoreTimeout() * 2,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.RequestMetrics())

	MountAppRoutes(app, h)
	return app
}

// MountAppRoutes mounts all application routes
func MountAppRoutes(app *fiber.App, h *http.Handler) {
	// Health check endpoint
	app.Get("/_health", h.HealthIndexAction)
	app.Head("/_health", h.HealthIndexAction)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// === REPORT ROUTES ===
	api := app.Group("/api")
	api.Get("/reports", h.ReportsIndexAction)
	api.Get("/reports/:bundle", h.ReportShowAction)
	api.Get("/export/:bundle", h.ExportShowAction)
}
