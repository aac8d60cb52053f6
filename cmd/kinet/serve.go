package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kinet-dev/kinet"
	"github.com/kinet-dev/kinet/internal/config"
	kineterrors "github.com/kinet-dev/kinet/internal/errors"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		static  string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in demo application",
		Long: `Serve a small demo application on the kinet runtime.

The demo exercises the component surface end to end: a fade panel driven
by inline styles, class toggles, and forced-reflow barriers, with
completions observed on the element's end stream; and a widget launcher
that mounts and disposes components at runtime.

Configuration comes from kinet.json when present; flags override it.

Examples:
  kinet serve
  kinet serve --addr=:3000
  kinet serve --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, static, metrics)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from kinet.json)")
	cmd.Flags().StringVar(&static, "static", "", "Static files directory (default from kinet.json)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on /metrics")

	return cmd
}

func runServe(addr, static string, metrics bool) error {
	cfg := kinet.DefaultConfig()
	cfg.Shell.Title = "kinet demo"

	// kinet.json is optional for the demo; a malformed one still fails.
	pcfg, err := config.LoadFromWorkingDir()
	switch {
	case err == nil:
		cfg.Addr = pcfg.Address()
		cfg.Static.Dir = pcfg.StaticPath()
		cfg.Static.Prefix = pcfg.StaticPrefix()
		cfg.Session.ResumeWindow = pcfg.ResumeWindow()
		if pcfg.Session.MaxSessions > 0 {
			cfg.Session.MaxSessions = pcfg.Session.MaxSessions
		}
		cfg.Metrics.Enabled = pcfg.Metrics
	case !isCode(err, "K061"):
		return err
	}

	// Apply command-line overrides
	if addr != "" {
		cfg.Addr = addr
	}
	if static != "" {
		cfg.Static.Dir = static
	}
	if metrics {
		cfg.Metrics.Enabled = true
	}
	if cfg.Static.Dir != "" {
		if _, err := os.Stat(cfg.Static.Dir); err != nil {
			warn("Static directory %s not found, serving without it", cfg.Static.Dir)
			cfg.Static.Dir = ""
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg.Logger = logger

	app := kinet.New(cfg)
	registerDemo(app, logger)
	cfg = app.Config()

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("Demo on    http://%s", displayAddr(cfg.Addr))
	if cfg.Metrics.Enabled {
		info("Metrics on http://%s%s", displayAddr(cfg.Addr), cfg.Metrics.Path)
	}
	fmt.Println()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Shutdown(ctx)
	}()

	return app.Run("")
}

// displayAddr rewrites a bind address for printing (":8080" becomes
// "localhost:8080").
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// isCode reports whether err carries the given kinet error code.
func isCode(err error, code string) bool {
	var ke *kineterrors.KinetError
	return stderrors.As(err, &ke) && ke.Code == code
}
