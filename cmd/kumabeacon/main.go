// Package main is the entry point for the kumabeacon CLI.
//
// The beacon can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	kumabeacon start -c beacon.yaml      # Start the beacon
//	kumabeacon validate -c beacon.yaml   # Validate configuration
//	kumabeacon service install -c beacon.yaml  # Install as a systemd service
//	kumabeacon version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "kumabeacon",
	Short: "Mirror Uptime Kuma monitor health onto GPIO pins",
	Long: `kumabeacon polls an Uptime Kuma status page and drives GPIO output
pins to match monitor health: a pin goes high while its monitor is up
and low while it is down (or the reverse, per binding).

Quick start:
  1. Create a config file (beacon.yaml)
  2. Run: kumabeacon start -c beacon.yaml
  3. Watch the lamps

Example config:
  url: https://status.example.com
  slug: default
  interval: 30s
  services:
    - name: Website
      pin: 17
    - id: 4
      pin: [22, 27]
      reverse: true`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this kumabeacon binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kumabeacon %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
