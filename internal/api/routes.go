package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chartview/tradingview-mcp/internal/tradingview"
)

// SetupRoutes configures the diagnostic API routes
func SetupRoutes(app *fiber.App, session SessionInfo, backend tradingview.Backend) {
	handler := NewHandler(session, backend)

	app.Get("/health", handler.HealthCheck)

	v1 := app.Group("/api/v1")
	v1.Get("/browser/status", handler.BrowserStatus)
	v1.Get("/session/status", handler.SessionStatus)
}
