package api_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/chartview/tradingview-mcp/internal/api"
	"github.com/chartview/tradingview-mcp/internal/config"
	"github.com/chartview/tradingview-mcp/internal/tradingview"
)

type fakeSession struct {
	running  bool
	endpoint string
}

func (f *fakeSession) IsRunning() bool  { return f.running }
func (f *fakeSession) Endpoint() string { return f.endpoint }

type fakeBackend struct {
	valid      bool
	err        error
	validCalls int
}

func (f *fakeBackend) Snapshot(context.Context, tradingview.Request) ([]byte, error) {
	return nil, nil
}

func (f *fakeBackend) ValidateSession(context.Context) (bool, error) {
	f.validCalls++
	return f.valid, f.err
}

func setupTestApp(session *fakeSession, backend *fakeBackend) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})
	api.SetupRoutes(app, session, backend)
	return app
}

func getJSON(t *testing.T, app *fiber.App, path string) api.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("%s returned status %d", path, resp.StatusCode)
	}

	var body api.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return body
}

func dataMap(t *testing.T, body api.Response) map[string]interface{} {
	t.Helper()
	data, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data payload %#v", body.Data)
	}
	return data
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(&fakeSession{}, &fakeBackend{})

	body := getJSON(t, app, "/health")
	if !body.Success {
		t.Fatal("health check should succeed")
	}
	if data := dataMap(t, body); data["status"] != "ok" {
		t.Fatalf("status = %v", data["status"])
	}
}

func TestBrowserStatus(t *testing.T) {
	app := setupTestApp(&fakeSession{running: true, endpoint: "ws://127.0.0.1:9222"}, &fakeBackend{})

	body := getJSON(t, app, "/api/v1/browser/status")
	data := dataMap(t, body)
	if data["running"] != true {
		t.Errorf("running = %v", data["running"])
	}
	if data["endpoint"] != "ws://127.0.0.1:9222" {
		t.Errorf("endpoint = %v", data["endpoint"])
	}
}

func TestSessionStatusUnconfigured(t *testing.T) {
	t.Setenv(config.EnvSessionID, "")
	t.Setenv(config.EnvSessionSign, "")

	backend := &fakeBackend{valid: true}
	app := setupTestApp(&fakeSession{}, backend)

	data := dataMap(t, getJSON(t, app, "/api/v1/session/status"))
	if data["configured"] != false || data["authenticated"] != false {
		t.Fatalf("unexpected status %v", data)
	}
	if backend.validCalls != 0 {
		t.Fatal("validator must not run without credentials")
	}
}

func TestSessionStatusConfigured(t *testing.T) {
	t.Setenv(config.EnvSessionID, "sid-token")
	t.Setenv(config.EnvSessionSign, "sign-token")

	backend := &fakeBackend{valid: true}
	app := setupTestApp(&fakeSession{running: true}, backend)

	data := dataMap(t, getJSON(t, app, "/api/v1/session/status"))
	if data["configured"] != true || data["authenticated"] != true {
		t.Fatalf("unexpected status %v", data)
	}
	if backend.validCalls != 1 {
		t.Fatalf("validator calls = %d", backend.validCalls)
	}
}
