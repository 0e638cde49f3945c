// Package cli implements nsctl, the operator command line for a running
// ns-engine, using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:8080"

var apiAddr string

var rootCmd = &cobra.Command{
	Use:   "nsctl",
	Short: "nsctl inspects and manages a Go2NetSentry engine",
	Long: `nsctl talks to the HTTP API of ns-engine.
It shows detector status, per-host samples and the blacklist, and can ban
or unban hosts by hand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addr := os.Getenv("SENTRY_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", addr, "Base URL of the ns-engine HTTP API (env SENTRY_ADDR)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
