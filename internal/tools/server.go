package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chartview/tradingview-mcp/internal/config"
)

// NewServer builds the MCP server with the three chart tools registered.
func NewServer(d *Dispatcher) *server.MCPServer {
	s := server.NewMCPServer(config.AppName, config.Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool(ToolGetChartSnapshot,
		mcp.WithDescription("Fetch a TradingView chart snapshot for a given symbol and timeframe. "+
			"Returns the chart as a base64-encoded PNG image. "+
			"Symbol format: 'EXCHANGE:SYMBOL' (e.g., 'BINANCE:BTCUSDT', 'NASDAQ:AAPL'). "+
			"Timeframes: 1, 5, 15, 30, 60, 240 (minutes) or D, W, M (day/week/month)."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Trading symbol in TradingView format (e.g., 'BINANCE:BTCUSDT')"),
		),
		mcp.WithString("interval",
			mcp.Description("Chart interval: 1, 5, 15, 30, 60, 240 (minutes) or D, W, M"),
			mcp.DefaultString("D"),
		),
		mcp.WithNumber("width",
			mcp.Description("Image width in pixels (default: 1200)"),
			mcp.DefaultNumber(1200),
		),
		mcp.WithNumber("height",
			mcp.Description("Image height in pixels (default: 600)"),
			mcp.DefaultNumber(600),
		),
		mcp.WithString("theme",
			mcp.Description("Chart theme: 'dark' or 'light' (default: dark)"),
			mcp.DefaultString("dark"),
			mcp.Enum("dark", "light"),
		),
	), d.handle(ToolGetChartSnapshot))

	s.AddTool(mcp.NewTool(ToolValidateSession,
		mcp.WithDescription("Validate if the TradingView session credentials are working correctly."),
	), d.handle(ToolValidateSession))

	s.AddTool(mcp.NewTool(ToolListTimeframes,
		mcp.WithDescription("List all available timeframes/intervals for TradingView charts."),
	), d.handle(ToolListTimeframes))

	return s
}

func (d *Dispatcher) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return d.Call(ctx, name, request.GetArguments()), nil
	}
}
