package kinet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kinet-dev/kinet/pkg/dom"
)

func homeComponent() Component {
	return FuncComponent(func(ctx Ctx) *dom.Node {
		return dom.El("div", dom.Class("home"), dom.Text("Welcome"))
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	app := New(Config{})

	cfg := app.Config()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.Shell.Title != "kinet" {
		t.Errorf("Shell.Title = %q, want %q", cfg.Shell.Title, "kinet")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
	if app.Handler() == nil {
		t.Error("expected non-nil handler")
	}
	if app.Server() == nil {
		t.Error("expected non-nil server")
	}
}

func TestShellServesRootComponent(t *testing.T) {
	app := New(Config{})
	app.Root(homeComponent)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want %q", cc, "no-store")
	}

	body := rr.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`class="home"`,
		"Welcome",
		"data-hid=",
		"window.__kinet",
		`"session":"`,
		`"endpoint":"/_kinet/ws"`,
		`src="/_kinet/client.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("shell missing %q", want)
		}
	}

	if got := app.Server().SessionCount(); got != 1 {
		t.Errorf("expected 1 pre-created session, got %d", got)
	}
}

func TestShellWithoutRootIsNotFound(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("GET / status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestShellRejectsOverSessionLimit(t *testing.T) {
	app := New(Config{Session: SessionConfig{MaxSessions: 1}})
	app.Root(homeComponent)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("first GET / status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("second GET / status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestShellEscapesTitle(t *testing.T) {
	app := New(Config{Shell: ShellConfig{Title: `a<b>&"c"`}})
	app.Root(homeComponent)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "<title>a&lt;b&gt;&amp;&#34;c&#34;</title>") {
		t.Errorf("title not escaped: %s", body)
	}
}

func TestShellInjectsHead(t *testing.T) {
	app := New(Config{Shell: ShellConfig{
		Head: `<link rel="stylesheet" href="/app.css">`,
	}})
	app.Root(homeComponent)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rr.Body.String(), `<link rel="stylesheet" href="/app.css">`) {
		t.Error("expected head HTML injected verbatim")
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", body)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	app := New(Config{})
	app.Root(homeComponent)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := New(Config{Metrics: MetricsConfig{Enabled: true}})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected metrics exposition output")
	}
}

func TestMetricsDisabledByDefault(t *testing.T) {
	app := New(Config{})

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestShutdownWithoutRun(t *testing.T) {
	app := New(Config{})

	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegisterExposesFactory(t *testing.T) {
	app := New(Config{})
	app.Register("widget", func() Component {
		return FuncComponent(func(ctx Ctx) *dom.Node {
			return dom.El("span", dom.Text("widget"))
		})
	})

	if _, ok := app.Server().Registry().Resolve("widget"); !ok {
		t.Error("expected registered factory to resolve")
	}
}
