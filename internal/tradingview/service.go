package tradingview

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/chartview/tradingview-mcp/internal/browser"
	"github.com/chartview/tradingview-mcp/internal/config"
)

// Backend defines the browsing operations the tool dispatcher and the
// diagnostic API depend on.
type Backend interface {
	Snapshot(ctx context.Context, req Request) ([]byte, error)
	ValidateSession(ctx context.Context) (bool, error)
}

// Request describes one chart capture.
type Request struct {
	Symbol   string // EXCHANGE:TICKER, passed through to TradingView unvalidated
	Interval string
	Width    int
	Height   int
	Theme    string
}

func (r Request) withDefaults(cfg *config.Config) Request {
	if r.Interval == "" {
		r.Interval = "D"
	}
	if r.Width < 1 {
		r.Width = cfg.DefaultWidth
	}
	if r.Height < 1 {
		r.Height = cfg.DefaultHeight
	}
	if r.Theme == "" {
		r.Theme = "dark"
	}
	return r
}

// Service captures chart snapshots through the shared browser session.
type Service struct {
	session *browser.Session
	cfg     *config.Config
}

var _ Backend = (*Service)(nil)

// NewService creates a chart capture service on top of the given session.
func NewService(session *browser.Session, cfg *config.Config) *Service {
	return &Service{
		session: session,
		cfg:     cfg,
	}
}

// waitStrategy is one bounded attempt at detecting chart render completion.
type waitStrategy struct {
	name     string
	selector string
	timeout  time.Duration
}

// renderWaits is the ordered best-effort detection chain. Each entry carries
// its own bound; when all fail the capture proceeds anyway and relies on the
// settle pause. There is no reliable render-complete signal on the chart page.
func (s *Service) renderWaits() []waitStrategy {
	return []waitStrategy{
		{name: "legend", selector: `div[data-name="legend-source-item"]`, timeout: s.cfg.PrimaryWait},
		{name: "chart-container", selector: ".chart-container", timeout: s.cfg.SecondaryWait},
	}
}

// Snapshot captures a viewport PNG of the chart page for the requested
// symbol. Best-effort: a returned image is not guaranteed to show a fully
// rendered chart.
func (s *Service) Snapshot(ctx context.Context, req Request) ([]byte, error) {
	req = req.withDefaults(s.cfg)
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	page, err := s.session.NewPage(ctx, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	chartURL := s.chartURL(req)
	log.Printf("Loading chart %s (%s)", req.Symbol, req.Interval)

	if err := s.navigate(page, chartURL); err != nil {
		return nil, err
	}

	s.waitForRender(page)
	s.pause(ctx, s.cfg.SettlePause)

	shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	log.Printf("Screenshot captured: %d bytes", len(shot))
	return shot, nil
}

// navigate loads the target URL, waiting for the load event within the bound.
// When the strict wait times out the capture continues with whatever loaded;
// the render waits and settle pause cover the rest.
func (s *Service) navigate(page *rod.Page, target string) error {
	bounded := page.Timeout(s.cfg.NavTimeout)

	if err := bounded.Navigate(target); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}

	if err := bounded.WaitLoad(); err != nil {
		log.Printf("Load wait did not complete, continuing: %v", err)
	}

	return nil
}

// waitForRender walks the detection chain and logs which strategy, if any,
// observed a render marker.
func (s *Service) waitForRender(page *rod.Page) {
	for _, w := range s.renderWaits() {
		if _, err := page.Timeout(w.timeout).Element(w.selector); err == nil {
			log.Printf("Chart render detected via %q marker", w.name)
			return
		}
		log.Printf("Render wait %q timed out, trying next", w.name)
	}
	log.Printf("No render marker found, relying on settle pause")
}

func (s *Service) chartURL(req Request) string {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("interval", req.Interval)
	q.Set("theme", req.Theme)
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/chart/?" + q.Encode()
}

// ValidateSession loads the site root and scans the markup for sign-in
// markers as a proxy for authentication state. Heuristic only: the OR below
// is the long-standing behavior and can report authenticated when just one
// side holds.
// TODO: confirm whether the OR should be an AND before tightening it; the
// current form is preserved deliberately.
func (s *Service) ValidateSession(ctx context.Context) (bool, error) {
	page, err := s.session.NewPage(ctx, s.cfg.DefaultWidth, s.cfg.DefaultHeight)
	if err != nil {
		return false, err
	}
	defer page.Close()

	if err := page.Timeout(s.cfg.ValidateTimeout).Navigate(s.cfg.BaseURL); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", s.cfg.BaseURL, err)
	}

	s.pause(ctx, s.cfg.ValidatePause)

	html, err := page.HTML()
	if err != nil {
		return false, fmt.Errorf("failed to read page content: %w", err)
	}

	content := strings.ToLower(html)
	return !strings.Contains(content, "sign in") || strings.Contains(content, "user-menu"), nil
}

func (s *Service) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
