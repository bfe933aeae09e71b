package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

const (
	// Version is the current server version
	Version = "1.0.0"
	// AppName is the application name
	AppName = "tradingview-mcp"
)

// Environment variables carrying the TradingView session cookies.
const (
	EnvSessionID   = "TRADINGVIEW_SESSION_ID"
	EnvSessionSign = "TRADINGVIEW_SESSION_ID_SIGN"
)

// ErrMissingCredentials is returned when either session cookie is absent from
// the environment.
var ErrMissingCredentials = errors.New("tradingview credentials not found in environment")

// Config holds all configuration options for the server
type Config struct {
	// Chart rendering
	BaseURL       string // TradingView base URL
	DefaultWidth  int
	DefaultHeight int

	// Timing bounds for the capture chain
	NavTimeout    time.Duration // navigation + strict load wait
	PrimaryWait   time.Duration // primary render marker
	SecondaryWait time.Duration // secondary render marker
	SettlePause   time.Duration // unconditional post-navigation pause

	// Session validation
	ValidateTimeout time.Duration
	ValidatePause   time.Duration

	// Chromium
	ChromeBin      string
	ChromeRevision int
	InstallDeps    bool

	// Diagnostic HTTP server (empty disables it)
	HTTPAddr string

	// Flags
	ShowVersion bool
	ShowHelp    bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://www.tradingview.com",
		DefaultWidth:    1200,
		DefaultHeight:   600,
		NavTimeout:      45 * time.Second,
		PrimaryWait:     20 * time.Second,
		SecondaryWait:   10 * time.Second,
		SettlePause:     3 * time.Second,
		ValidateTimeout: 15 * time.Second,
		ValidatePause:   time.Second,
		ChromeBin:       "",
		ChromeRevision:  0,
		InstallDeps:     false,
		HTTPAddr:        "",
		ShowVersion:     false,
		ShowHelp:        false,
	}
}

// ParseFlags parses command line flags and returns the config
func ParseFlags() *Config {
	cfg := DefaultConfig()

	// Chart flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "TradingView base URL")
	flag.IntVar(&cfg.DefaultWidth, "width", cfg.DefaultWidth, "Default snapshot width in pixels")
	flag.IntVar(&cfg.DefaultHeight, "height", cfg.DefaultHeight, "Default snapshot height in pixels")

	// Timing flags
	flag.DurationVar(&cfg.NavTimeout, "nav-timeout", cfg.NavTimeout, "Chart navigation timeout")
	flag.DurationVar(&cfg.SettlePause, "settle", cfg.SettlePause, "Unconditional render settle pause")

	// Chromium flags
	flag.StringVar(&cfg.ChromeBin, "chrome-bin", cfg.ChromeBin, "Path to a Chromium/Chrome binary (auto-detected if empty)")
	flag.IntVar(&cfg.ChromeRevision, "chrome-revision", cfg.ChromeRevision, "Chromium revision to download when no binary is found (0 uses default)")
	flag.BoolVar(&cfg.InstallDeps, "install-deps", cfg.InstallDeps, "Install OS packages required by Chromium before downloading")

	// Diagnostic HTTP flags
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Address for the diagnostic HTTP server (disabled if empty)")

	// Other flags
	flag.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", cfg.ShowHelp, "Show help message")

	flag.Usage = func() {
		PrintHelp()
	}

	flag.Parse()

	// Validate
	if cfg.DefaultWidth < 1 {
		cfg.DefaultWidth = 1200
	}
	if cfg.DefaultHeight < 1 {
		cfg.DefaultHeight = 600
	}

	return cfg
}

// Credentials holds the two opaque TradingView session cookie values.
type Credentials struct {
	SessionID   string
	SessionSign string
}

// LoadCredentials reads the session cookies from the environment. They are
// read on every call and never cached, so rotated cookies take effect without
// a restart.
func LoadCredentials() Credentials {
	return Credentials{
		SessionID:   os.Getenv(EnvSessionID),
		SessionSign: os.Getenv(EnvSessionSign),
	}
}

// Missing reports whether either cookie value is absent.
func (c Credentials) Missing() bool {
	return c.SessionID == "" || c.SessionSign == ""
}

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("%s v%s\n", AppName, Version)
}

// PrintHelp prints help information
func PrintHelp() {
	fmt.Printf(`%s v%s (TradingView chart snapshots over MCP)

Usage:
  ./server [flags]

Chart:
  --base-url        %s
  --width           %d
  --height          %d

Timing:
  --nav-timeout     %s
  --settle          %s

Chromium:
  --chrome-bin      path to a Chromium binary (auto-detected if empty)
  --chrome-revision %d (0 uses default)
  --install-deps    %v

Diagnostics:
  --http-addr       address for the diagnostic HTTP server (disabled if empty)

Other:
  --version         show version
  --help            show this help

Environment:
  %s       TradingView session cookie
  %s  TradingView session cookie signature

`, AppName, Version,
		"https://www.tradingview.com", 1200, 600,
		"45s", "3s",
		0, false,
		EnvSessionID, EnvSessionSign)
}

// HandleFlags handles version and help flags, exits if needed
func HandleFlags(cfg *Config) {
	if cfg.ShowVersion {
		PrintVersion()
		os.Exit(0)
	}

	if cfg.ShowHelp {
		PrintHelp()
		os.Exit(0)
	}
}
