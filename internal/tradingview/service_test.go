package tradingview

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/chartview/tradingview-mcp/internal/config"
)

func TestChartURL(t *testing.T) {
	s := NewService(nil, config.DefaultConfig())

	got := s.chartURL(Request{Symbol: "BINANCE:BTCUSDT", Interval: "D", Theme: "dark"})
	if !strings.HasPrefix(got, "https://www.tradingview.com/chart/?") {
		t.Fatalf("unexpected chart URL %q", got)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("chart URL does not parse: %v", err)
	}

	q := u.Query()
	if q.Get("symbol") != "BINANCE:BTCUSDT" {
		t.Errorf("symbol = %q", q.Get("symbol"))
	}
	if q.Get("interval") != "D" {
		t.Errorf("interval = %q", q.Get("interval"))
	}
	if q.Get("theme") != "dark" {
		t.Errorf("theme = %q", q.Get("theme"))
	}
}

func TestChartURLTrailingSlashBase(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://www.tradingview.com/"
	s := NewService(nil, cfg)

	got := s.chartURL(Request{Symbol: "NASDAQ:AAPL", Interval: "60", Theme: "light"})
	if strings.Contains(got, "//chart") {
		t.Fatalf("double slash in chart URL %q", got)
	}
}

func TestRequestDefaults(t *testing.T) {
	cfg := config.DefaultConfig()

	req := Request{Symbol: "BINANCE:BTCUSDT"}.withDefaults(cfg)
	if req.Interval != "D" {
		t.Errorf("interval default = %q", req.Interval)
	}
	if req.Width != 1200 || req.Height != 600 {
		t.Errorf("dimension defaults = %dx%d", req.Width, req.Height)
	}
	if req.Theme != "dark" {
		t.Errorf("theme default = %q", req.Theme)
	}

	// Explicit values survive.
	req = Request{Symbol: "X", Interval: "15", Width: 800, Height: 400, Theme: "light"}.withDefaults(cfg)
	if req.Interval != "15" || req.Width != 800 || req.Height != 400 || req.Theme != "light" {
		t.Errorf("explicit values overridden: %+v", req)
	}
}

func TestRenderWaitChainOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewService(nil, cfg)

	waits := s.renderWaits()
	if len(waits) != 2 {
		t.Fatalf("expected two wait strategies, got %d", len(waits))
	}
	if waits[0].selector != `div[data-name="legend-source-item"]` {
		t.Errorf("primary selector = %q", waits[0].selector)
	}
	if waits[1].selector != ".chart-container" {
		t.Errorf("secondary selector = %q", waits[1].selector)
	}
	if waits[0].timeout != cfg.PrimaryWait || waits[1].timeout != cfg.SecondaryWait {
		t.Errorf("wait bounds = %v, %v", waits[0].timeout, waits[1].timeout)
	}
}

func TestTimeframesDeterministic(t *testing.T) {
	first := Timeframes()
	second := Timeframes()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("timeframes must be deterministic")
	}

	var all []string
	for _, group := range first {
		all = append(all, group.Intervals...)
	}

	want := []string{"1", "5", "15", "30", "60", "240", "D", "W", "M"}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("timeframes = %v, want %v", all, want)
	}
}
