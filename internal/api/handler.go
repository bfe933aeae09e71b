package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chartview/tradingview-mcp/internal/config"
	"github.com/chartview/tradingview-mcp/internal/tradingview"
)

// SessionInfo is the subset of the browser session the handlers read.
type SessionInfo interface {
	IsRunning() bool
	Endpoint() string
}

// Handler handles diagnostic API requests
type Handler struct {
	session SessionInfo
	backend tradingview.Backend
}

// NewHandler creates a new handler
func NewHandler(session SessionInfo, backend tradingview.Backend) *Handler {
	return &Handler{
		session: session,
		backend: backend,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorHandler is the custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Error:   err.Error(),
	})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data: fiber.Map{
			"status":    "ok",
			"version":   config.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// BrowserStatus returns browser session status
func (h *Handler) BrowserStatus(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data: fiber.Map{
			"running":  h.session.IsRunning(),
			"endpoint": h.session.Endpoint(),
		},
	})
}

// SessionStatus runs the authentication heuristic and reports the outcome.
// The check is approximate; "authenticated" here means the heuristic passed,
// not that the cookies are verified valid.
func (h *Handler) SessionStatus(c *fiber.Ctx) error {
	if config.LoadCredentials().Missing() {
		return c.JSON(Response{
			Success: true,
			Data: fiber.Map{
				"configured":    false,
				"authenticated": false,
			},
		})
	}

	authenticated, err := h.backend.ValidateSession(c.Context())
	if err != nil {
		authenticated = false
	}

	return c.JSON(Response{
		Success: true,
		Data: fiber.Map{
			"configured":    true,
			"authenticated": authenticated,
		},
	})
}
