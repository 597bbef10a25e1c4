package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pathway/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags projectFlags

	rootCmd := &cobra.Command{
		Use:   "pathway",
		Short: "Route matching and loading from a JSON route manifest",
		Long: `Pathway builds a route tree from a JSON manifest and matches,
loads and serves locations against it.

  • Inspect the route tree and lint it for ambiguous routes
  • Match pathnames without running loaders
  • Serve JSON snapshots of rendered locations
  • Drive a live router through the inspect API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to pathway.json (default: search from the working directory)")
	rootCmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Path to the route manifest (default from pathway.json)")

	rootCmd.AddCommand(
		initCmd(),
		routesCmd(&flags),
		matchCmd(&flags),
		lintCmd(&flags),
		serveCmd(&flags),
		versionCmd(),
	)
	return rootCmd
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
