package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chartview/tradingview-mcp/internal/api"
	"github.com/chartview/tradingview-mcp/internal/browser"
	"github.com/chartview/tradingview-mcp/internal/config"
	"github.com/chartview/tradingview-mcp/internal/tools"
	"github.com/chartview/tradingview-mcp/internal/tradingview"
)

func main() {
	// stdout carries the MCP stream; everything else must go to stderr.
	log.SetOutput(os.Stderr)

	cfg := config.ParseFlags()
	config.HandleFlags(cfg)

	log.Printf("Starting %s v%s", config.AppName, config.Version)

	if config.LoadCredentials().Missing() {
		log.Printf("Warning: TradingView credentials not found in environment. Set %s and %s.",
			config.EnvSessionID, config.EnvSessionSign)
	}

	chromeBin := cfg.ChromeBin
	if resolved, err := browser.EnsureChromium(context.Background(), cfg.ChromeBin, cfg.ChromeRevision, cfg.InstallDeps); err != nil {
		log.Printf("Warning: could not resolve a Chromium binary: %v", err)
	} else {
		chromeBin = resolved
	}

	session := browser.NewSession(chromeBin)
	defer session.Release()

	service := tradingview.NewService(session, cfg)
	dispatcher := tools.NewDispatcher(service, cfg)
	mcpServer := tools.NewServer(dispatcher)

	if cfg.HTTPAddr != "" {
		app := fiber.New(fiber.Config{
			AppName:               config.AppName,
			ErrorHandler:          api.ErrorHandler,
			DisableStartupMessage: true,
		})

		app.Use(recover.New())
		app.Use(logger.New(logger.Config{Output: os.Stderr}))
		app.Use(cors.New())

		api.SetupRoutes(app, session, service)

		go func() {
			log.Printf("Diagnostic HTTP server listening on %s", cfg.HTTPAddr)
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				log.Printf("Diagnostic HTTP server stopped: %v", err)
			}
		}()
		defer func() {
			if err := app.Shutdown(); err != nil {
				log.Printf("Error shutting down diagnostic HTTP server: %v", err)
			}
		}()
	}

	// Graceful shutdown on signals; os.Exit skips defers, so release here.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		session.Release()
		os.Exit(0)
	}()

	if err := server.ServeStdio(mcpServer); err != nil {
		session.Release()
		log.Fatalf("MCP server error: %v", err)
	}
}
