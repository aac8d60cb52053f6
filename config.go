package kinet

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kinet-dev/kinet/pkg/server"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the application configuration: the user-facing entry point for
// configuring a kinet app.
type Config struct {
	// Addr is the listen address used by Run when none is passed.
	// Default: ":8080".
	Addr string

	// Session configures session lifetime and limits.
	Session SessionConfig

	// Static configures static file serving.
	Static StaticConfig

	// Shell configures the server-rendered page wrapping the root
	// component.
	Shell ShellConfig

	// Metrics configures the Prometheus endpoint and event metrics.
	Metrics MetricsConfig

	// Security configures WebSocket origin checking.
	Security SecurityConfig

	// DevMode disables client caching so iteration picks up changes
	// immediately. Never enable in production.
	DevMode bool

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	// ResumeWindow is how long a disconnected session remains resumable.
	// It also bounds how long a pre-rendered page may wait before its
	// client connects. Default: 30 seconds.
	ResumeWindow time.Duration

	// MaxSessions caps concurrently live sessions. Default: 10000.
	MaxSessions int

	// EventQueueSize is the per-session inbound event buffer.
	// Default: 256.
	EventQueueSize int
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g. "public").
	// Empty disables static serving.
	Dir string

	// Prefix is the URL path prefix for static files. A file at
	// public/styles.css with Prefix "/" is served at /styles.css.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone.
	CacheControl CacheControlStrategy

	// Headers are custom headers added to all static file responses.
	Headers map[string]string
}

// ShellConfig configures the HTML document served around the root
// component.
type ShellConfig struct {
	// Title is the document title. Default: "kinet".
	Title string

	// Head is raw HTML injected into <head>, for stylesheets and fonts.
	// It is written verbatim; do not feed it request data.
	Head string

	// Lang is the html element's lang attribute. Default: "en".
	Lang string
}

// MetricsConfig configures the Prometheus metrics surface.
type MetricsConfig struct {
	// Enabled turns on event metrics collection and the metrics endpoint.
	Enabled bool

	// Path is the metrics endpoint path. Default: "/metrics".
	Path string
}

// SecurityConfig configures WebSocket origin checking.
type SecurityConfig struct {
	// AllowedOrigins lists origins allowed to open the WebSocket, e.g.
	// "https://app.example.com". When set it is the complete policy.
	AllowedOrigins []string

	// AllowSameOrigin validates that the Origin header matches the
	// request host when AllowedOrigins is empty. Default: true.
	AllowSameOrigin bool
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone sends no-store; useful in development.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction caches fingerprinted files as immutable for
	// a year and everything else briefly with revalidation.
	CacheControlProduction
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config with the documented defaults applied.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8080",
		Session:  DefaultSessionConfig(),
		Static:   DefaultStaticConfig(),
		Shell:    DefaultShellConfig(),
		Metrics:  MetricsConfig{Path: "/metrics"},
		Security: SecurityConfig{AllowSameOrigin: true},
	}
}

// DefaultSessionConfig returns a SessionConfig with the server defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ResumeWindow:   server.DefaultResumeWindow,
		MaxSessions:    server.DefaultMaxSessions,
		EventQueueSize: server.DefaultEventQueueSize,
	}
}

// DefaultStaticConfig returns a StaticConfig with the documented defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Prefix:       "/",
		CacheControl: CacheControlNone,
	}
}

// DefaultShellConfig returns a ShellConfig with the documented defaults.
func DefaultShellConfig() ShellConfig {
	return ShellConfig{Title: "kinet", Lang: "en"}
}

// withDefaults fills zero string and path fields. Session zeroes fall
// through to the runtime's own defaults; Security is applied as given, with
// DefaultConfig carrying the recommended same-origin policy.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/"
	}
	if c.Shell.Title == "" {
		c.Shell.Title = "kinet"
	}
	if c.Shell.Lang == "" {
		c.Shell.Lang = "en"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// =============================================================================
// Config to server.Config Translation
// =============================================================================

// buildServerConfig converts the application Config to the runtime's
// server.Config. hooks may be nil when metrics are disabled.
func buildServerConfig(cfg Config, hooks *server.Hooks) server.Config {
	return server.Config{
		Logger:         cfg.Logger,
		MaxSessions:    cfg.Session.MaxSessions,
		EventQueueSize: cfg.Session.EventQueueSize,
		ResumeWindow:   cfg.Session.ResumeWindow,
		CheckOrigin:    buildOriginCheck(cfg),
		Hooks:          hooks,
	}
}

// buildOriginCheck derives the upgrader origin policy. DevMode allows all
// origins so local tooling on other ports can connect.
func buildOriginCheck(cfg Config) func(*http.Request) bool {
	if cfg.DevMode {
		return func(*http.Request) bool { return true }
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		allowed := make(map[string]bool, len(cfg.Security.AllowedOrigins))
		for _, origin := range cfg.Security.AllowedOrigins {
			allowed[origin] = true
		}
		return func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return allowed[origin]
		}
	}
	if cfg.Security.AllowSameOrigin {
		return sameOriginCheck
	}
	return nil
}

// sameOriginCheck accepts requests whose Origin host matches the request
// host. Requests without an Origin header (non-browser clients) pass.
func sameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
