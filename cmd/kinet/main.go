package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kineterrors "github.com/kinet-dev/kinet/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦╔═╦╔╗╔╔═╗╔╦╗
  ╠╩╗║║║║║╣  ║
  ╩ ╩╩╝╚╝╚═╝ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "kinet",
		Short: "Server-driven UI runtime for Go",
		Long: `Kinet renders components on the server and drives the browser
through binary patches over a WebSocket.

  • Server-side components with imperative element control
  • Inline styles, class toggles, and forced-reflow barriers
  • Unified transitionend/animationend streams per element
  • Dynamic component mounting with scoped factories
  • Session resume across reconnects`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		publishCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		kineterrors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the kinet ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
