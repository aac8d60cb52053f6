package kinet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kinet-dev/kinet/pkg/middleware"
	"github.com/kinet-dev/kinet/pkg/server"
)

// =============================================================================
// App Type
// =============================================================================

// App assembles the public HTTP surface of a kinet application: the
// server-rendered page, the WebSocket endpoint, the embedded client, static
// files, health, and optional metrics.
//
//	app := kinet.New(kinet.Config{
//		Static:  kinet.StaticConfig{Dir: "public"},
//		DevMode: os.Getenv("ENV") != "production",
//	})
//	app.Root(func() kinet.Component { return &Dashboard{} })
//	app.Run(":8080")
type App struct {
	server *server.Server
	mux    *chi.Mux

	cfg      Config
	logger   *slog.Logger
	staticFS http.FileSystem

	mu          sync.Mutex
	rootFactory Factory
	httpServer  *http.Server
}

// New creates an application from cfg with defaults applied.
func New(cfg Config) *App {
	cfg = cfg.withDefaults()

	var hooks *server.Hooks
	if cfg.Metrics.Enabled {
		hooks = middleware.ServerHooks()
	}

	a := &App{
		server: server.New(buildServerConfig(cfg, hooks)),
		cfg:    cfg,
		logger: cfg.Logger.With("component", "app"),
	}
	if cfg.Static.Dir != "" {
		a.staticFS = http.Dir(cfg.Static.Dir)
	}
	if cfg.Metrics.Enabled {
		a.server.Use(middleware.Prometheus())
	}
	a.mux = a.buildRoutes()
	return a
}

// Framework endpoint paths, under /_kinet/ so they never collide with
// application paths.
const (
	wsPath     = "/_kinet/ws"
	clientPath = "/_kinet/client.js"
)

// buildRoutes wires the chi router.
func (a *App) buildRoutes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get(wsPath, a.server.HandleWebSocket)
	r.Get(clientPath, a.serveClient)
	r.Head(clientPath, a.serveClient)

	r.Get("/healthz", a.serveHealth)

	if a.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, a.cfg.Metrics.Path, promhttp.Handler())
	}

	r.Get("/", a.serveShell)

	if a.cfg.Static.Dir != "" {
		pattern := a.cfg.Static.Prefix
		if pattern == "/" {
			pattern = "/*"
		} else {
			pattern = strippedSlash(pattern) + "/*"
		}
		r.Get(pattern, a.serveStatic)
		r.Head(pattern, a.serveStatic)
	}

	return r
}

func strippedSlash(prefix string) string {
	if len(prefix) > 1 && prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1]
	}
	return prefix
}

// =============================================================================
// Registration
// =============================================================================

// Root sets the component served at "/" and mounted for clients that
// connect without a pre-rendered page.
func (a *App) Root(f Factory) {
	a.mu.Lock()
	a.rootFactory = f
	a.mu.Unlock()
	a.server.SetRootFactory(f)
}

// Register binds a named component factory for dynamic mounting.
func (a *App) Register(name string, f Factory) {
	a.server.Register(name, f)
}

// Use appends event middleware; call before serving.
func (a *App) Use(mw ...EventMiddleware) {
	a.server.Use(mw...)
}

// =============================================================================
// http.Handler
// =============================================================================

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Handler returns the App's router, for mounting under another mux or
// wrapping with HTTP middleware.
func (a *App) Handler() http.Handler {
	return a.mux
}

// Server returns the underlying session server for advanced configuration.
func (a *App) Server() *server.Server {
	return a.server
}

// Config returns the application configuration with defaults applied.
func (a *App) Config() Config {
	return a.cfg
}

// serveHealth reports liveness and the live session count.
func (a *App) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`+"\n", a.server.SessionCount())
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run starts the HTTP server on addr (or Config.Addr when empty) and blocks
// until Shutdown or a listener error.
func (a *App) Run(addr string) error {
	if addr == "" {
		addr = a.cfg.Addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.mu.Lock()
	a.httpServer = srv
	a.mu.Unlock()

	a.logger.Info("listening", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, then closes every session. The
// context bounds both stages.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()

	var httpErr error
	if srv != nil {
		httpErr = srv.Shutdown(ctx)
	}
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	return httpErr
}
