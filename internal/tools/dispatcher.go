package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chartview/tradingview-mcp/internal/config"
	"github.com/chartview/tradingview-mcp/internal/tradingview"
)

// Tool names exposed over MCP.
const (
	ToolGetChartSnapshot = "get_chart_snapshot"
	ToolValidateSession  = "validate_session"
	ToolListTimeframes   = "list_timeframes"
)

const credentialsMissingText = "Error: TradingView credentials not found. Please set " +
	config.EnvSessionID + " and " + config.EnvSessionSign + " in the environment."

// Dispatcher routes tool calls to the browsing backend. Every tool checks the
// credential environment first so an unconfigured server answers every call
// with the same message, including calls that never touch the browser.
type Dispatcher struct {
	backend tradingview.Backend
	cfg     *config.Config
}

// NewDispatcher creates a dispatcher over the given backend.
func NewDispatcher(backend tradingview.Backend, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		cfg:     cfg,
	}
}

// Call invokes the named tool. It always returns a result; browsing failures
// degrade to explanatory text instead of raising through the protocol layer.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	reqID := uuid.NewString()
	log.Printf("Tool call %s (request %s)", name, reqID)

	if config.LoadCredentials().Missing() {
		return mcp.NewToolResultText(credentialsMissingText)
	}

	switch name {
	case ToolGetChartSnapshot:
		return d.chartSnapshot(ctx, args)
	case ToolValidateSession:
		return d.validateSession(ctx)
	case ToolListTimeframes:
		return d.listTimeframes()
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Unknown tool: %s", name))
	}
}

func (d *Dispatcher) chartSnapshot(ctx context.Context, args map[string]any) *mcp.CallToolResult {
	symbol := stringArg(args, "symbol", "")
	if symbol == "" {
		return mcp.NewToolResultText("Error: 'symbol' parameter is required. Example: 'BINANCE:BTCUSDT'")
	}

	req := tradingview.Request{
		Symbol:   symbol,
		Interval: stringArg(args, "interval", "D"),
		Width:    intArg(args, "width", d.cfg.DefaultWidth),
		Height:   intArg(args, "height", d.cfg.DefaultHeight),
		Theme:    stringArg(args, "theme", "dark"),
	}

	log.Printf("Fetching chart snapshot for %s (%s)", req.Symbol, req.Interval)

	img, err := d.backend.Snapshot(ctx, req)
	if err != nil {
		log.Printf("Chart capture failed for %s: %v", req.Symbol, err)
		return mcp.NewToolResultText(captureFailedText(req.Symbol))
	}

	summary := fmt.Sprintf(
		"Chart snapshot for %s (Interval: %s)\nSize: %dx%d | Theme: %s\nImage size: %d bytes",
		req.Symbol, req.Interval, req.Width, req.Height, req.Theme, len(img))

	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(img), "image/png")
}

func (d *Dispatcher) validateSession(ctx context.Context) *mcp.CallToolResult {
	valid, err := d.backend.ValidateSession(ctx)
	if err != nil {
		log.Printf("Session validation failed: %v", err)
		valid = false
	}

	status := "✗ Invalid"
	detail := "not working"
	if valid {
		status = "✓ Valid"
		detail = "working correctly"
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session Status: %s\n\nThe TradingView session credentials are %s.",
		status, detail))
}

func (d *Dispatcher) listTimeframes() *mcp.CallToolResult {
	var b strings.Builder
	b.WriteString("Available TradingView Timeframes:\n\n")
	for _, group := range tradingview.Timeframes() {
		fmt.Fprintf(&b, "%s:\n", group.Label)
		for _, interval := range group.Intervals {
			fmt.Fprintf(&b, "  - %s\n", interval)
		}
	}
	b.WriteString("\nExamples:\n")
	b.WriteString("  - '5' = 5-minute chart\n")
	b.WriteString("  - '60' = 1-hour chart\n")
	b.WriteString("  - 'D' = Daily chart\n")

	return mcp.NewToolResultText(b.String())
}

func captureFailedText(symbol string) string {
	return fmt.Sprintf("Failed to fetch chart snapshot for %s.\n\n"+
		"Possible reasons:\n"+
		"1. Invalid symbol format (use 'EXCHANGE:SYMBOL' format)\n"+
		"2. Symbol not found on TradingView\n"+
		"3. Network or timeout issues\n\n"+
		"Please check your input and try again.", symbol)
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
