package browser

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/chartview/tradingview-mcp/internal/config"
)

const cookieDomain = ".tradingview.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session owns the process-wide Chromium instance and the single authenticated
// incognito context every capture multiplexes through. Pages are opened per
// call and discarded; a page must never be shared across calls, since the
// no-locking model below is only safe while each call holds its own page.
type Session struct {
	chromeBin string

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	authed   *rod.Browser // incognito context carrying the session cookies
	wsURL    string

	// boot performs the launch/connect/context dance. Swappable in tests.
	boot func(creds config.Credentials) (*bootResult, error)
}

type bootResult struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	authed   *rod.Browser
	wsURL    string
}

// NewSession creates a session manager. Nothing is launched until the first
// Acquire.
func NewSession(chromeBin string) *Session {
	s := &Session{chromeBin: chromeBin}
	s.boot = s.bootChromium
	return s
}

// Acquire returns the shared authenticated browsing context, booting Chromium
// on first use. Missing credentials fail before any browser resource is
// touched. A failed boot leaves the session clean so the next call retries
// from scratch.
func (s *Session) Acquire(ctx context.Context) (*rod.Browser, error) {
	creds := config.LoadCredentials()
	if creds.Missing() {
		return nil, config.ErrMissingCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authed != nil {
		return s.authed, nil
	}

	res, err := s.boot(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	s.launcher = res.launcher
	s.browser = res.browser
	s.authed = res.authed
	s.wsURL = res.wsURL

	return s.authed, nil
}

// NewPage opens a fresh page from the shared context, sized to the given
// viewport. The caller owns the page and must close it.
func (s *Session) NewPage(ctx context.Context, width, height int) (*rod.Page, error) {
	authed, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	page, err := authed.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	return page, nil
}

// Release tears down the context, the browser, and the launch handle, in that
// order. Idempotent and safe to call before any acquisition succeeded.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authed != nil && s.browser != nil && s.authed.BrowserContextID != "" {
		dispose := proto.TargetDisposeBrowserContext{BrowserContextID: s.authed.BrowserContextID}
		if err := dispose.Call(s.browser); err != nil {
			log.Printf("Warning: failed to close browsing context: %v", err)
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("Warning: failed to close chromium: %v", err)
		}
	}

	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}

	if s.authed != nil {
		log.Println("Browser session released")
	}

	s.launcher = nil
	s.browser = nil
	s.authed = nil
	s.wsURL = ""
}

// IsRunning reports whether the shared context is alive.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed != nil
}

// Endpoint returns the Chrome DevTools endpoint, or "" before the first boot.
func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wsURL
}

func (s *Session) bootChromium(creds config.Credentials) (*bootResult, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run")
	if s.chromeBin != "" {
		l.Bin(s.chromeBin)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to chromium: %w", err)
	}

	authed, err := b.Incognito()
	if err != nil {
		if closeErr := b.Close(); closeErr != nil {
			log.Printf("Warning: failed to close chromium after context error: %v", closeErr)
		}
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create browsing context: %w", err)
	}

	if err := authed.SetCookies(sessionCookies(creds)); err != nil {
		if closeErr := b.Close(); closeErr != nil {
			log.Printf("Warning: failed to close chromium after cookie error: %v", closeErr)
		}
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to inject session cookies: %w", err)
	}

	log.Printf("Chromium started with endpoint %s", wsURL)
	return &bootResult{launcher: l, browser: b, authed: authed, wsURL: wsURL}, nil
}

func sessionCookies(creds config.Credentials) []*proto.NetworkCookieParam {
	cookie := func(name, value string) *proto.NetworkCookieParam {
		return &proto.NetworkCookieParam{
			Name:     name,
			Value:    value,
			Domain:   cookieDomain,
			Path:     "/",
			HTTPOnly: true,
			Secure:   true,
			SameSite: proto.NetworkCookieSameSiteLax,
		}
	}

	return []*proto.NetworkCookieParam{
		cookie("sessionid", creds.SessionID),
		cookie("sessionid_sign", creds.SessionSign),
	}
}
