package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kumabeacon/config"
)

// validateCmd validates a config file without touching the network or GPIO.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a kumabeacon configuration file without starting the beacon.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.
Monitor names are NOT resolved against the status page; that needs a
running beacon.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  kumabeacon validate -c beacon.yaml
  kumabeacon validate --config /etc/kumabeacon/beacon.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	enabled := 0
	pins := 0
	for i := range cfg.Services {
		if cfg.Services[i].IsEnabled() {
			enabled++
			pins += len(cfg.Services[i].Pin)
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Status page: %s (slug %q)\n", cfg.URL, cfg.Slug)
	fmt.Printf("  Pin mode:    %s\n", cfg.PinMode)
	fmt.Printf("  Interval:    %s\n", cfg.Interval.Duration())
	fmt.Printf("  Services:    %d enabled of %d, driving %d pins\n",
		enabled, len(cfg.Services), pins)

	return nil
}
