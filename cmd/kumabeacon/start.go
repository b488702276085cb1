package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kumabeacon"
	"kumabeacon/config"
	"kumabeacon/internal/hw"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// startCmd runs the beacon in the foreground.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the beacon",
	Long: `Start the beacon in the foreground.

The beacon will:
  - Load configuration from the specified YAML file
  - Resolve monitor names against the status page
  - Configure the bound GPIO pins as outputs
  - Poll the status page and drive the pins until interrupted

On shutdown (Ctrl+C or SIGTERM) every pin is driven low and released.

Example:
  kumabeacon start -c beacon.yaml
  kumabeacon start --config /etc/kumabeacon/beacon.yaml --simulate`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	startCmd.Flags().Bool("simulate", false, "use the in-memory GPIO backend instead of real hardware")
	startCmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
	_ = startCmd.MarkFlagRequired("config")
}

func runStart(cmd *cobra.Command, args []string) error {
	// optional .env next to the working directory, for ${VAR} expansion
	_ = godotenv.Load()

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	simulate, _ := cmd.Flags().GetBool("simulate")
	simulate = simulate || cfg.Simulate

	logger.Info("config loaded",
		"url", cfg.URL,
		"slug", cfg.Slug,
		"services", len(cfg.Services),
		"interval", cfg.Interval.Duration().String(),
		"simulate", simulate,
	)

	bindings, err := config.BuildBindings(cfg)
	if err != nil {
		return fmt.Errorf("failed to build bindings: %w", err)
	}

	var backend hw.Backend
	if simulate {
		backend = hw.NewSimBackend(logger)
	} else {
		backend, err = hw.NewPeriphBackend(hw.PinMode(cfg.PinMode))
		if err != nil {
			return fmt.Errorf("failed to initialise GPIO: %w", err)
		}
	}

	opts := []kumabeacon.Option{
		kumabeacon.WithStatusPage(cfg.URL, cfg.Slug),
		kumabeacon.WithBindings(bindings...),
		kumabeacon.WithInterval(cfg.Interval.Duration()),
		kumabeacon.WithFetchTimeout(cfg.Timeout.Duration()),
		kumabeacon.WithHardware(backend),
		kumabeacon.WithLogger(logger),
	}
	if cfg.Listen != "" {
		opts = append(opts, kumabeacon.WithListenAddress(cfg.Listen))
	}

	b, err := kumabeacon.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create beacon: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start beacon - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Start(ctx)
	}()

	// wait for the beacon to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("beacon error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("beacon error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
