package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	serviceName = "kuma-uptime-beacon"
	unitPath    = "/etc/systemd/system/" + serviceName + ".service"
)

// serviceCmd groups the systemd management subcommands.
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the beacon as a systemd service",
	Long: `Install, remove, or inspect a systemd unit running the beacon.

These commands must run as root on a Linux host with systemd.

Example:
  sudo kumabeacon service install -c /etc/kumabeacon/beacon.yaml
  sudo kumabeacon service status
  sudo kumabeacon service uninstall`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the systemd unit",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd unit",
	RunE:  runServiceUninstall,
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the systemd unit status",
	RunE:  runServiceStatus,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd, serviceStatusCmd)

	serviceInstallCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serviceInstallCmd.MarkFlagRequired("config")
}

// renderUnit produces the systemd unit file contents.
func renderUnit(executable, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=Uptime Kuma hardware beacon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s start -c %s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, executable, configPath)
}

func requireSystemd() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("service management requires Linux with systemd, running on %s", runtime.GOOS)
	}
	if _, err := exec.LookPath("systemctl"); err != nil {
		return fmt.Errorf("systemctl not found: %w", err)
	}
	return nil
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", args[0], err)
	}
	return nil
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	if err := requireSystemd(); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	configPath, err := filepath.Abs(configFile)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config file not readable: %w", err)
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate own binary: %w", err)
	}

	unit := renderUnit(executable, configPath)
	if err := os.WriteFile(unitPath, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file (are you root?): %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := systemctl("enable", serviceName); err != nil {
		return err
	}
	if err := systemctl("start", serviceName); err != nil {
		return err
	}

	fmt.Printf("Installed and started %s\n", serviceName)
	fmt.Printf("  unit:   %s\n", unitPath)
	fmt.Printf("  config: %s\n", configPath)
	return nil
}

func runServiceUninstall(cmd *cobra.Command, args []string) error {
	if err := requireSystemd(); err != nil {
		return err
	}

	// stop and disable first so the unit file is no longer in use
	_ = systemctl("stop", serviceName)
	_ = systemctl("disable", serviceName)

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	if err := systemctl("daemon-reload"); err != nil {
		return err
	}

	fmt.Printf("Removed %s\n", serviceName)
	return nil
}

func runServiceStatus(cmd *cobra.Command, args []string) error {
	if err := requireSystemd(); err != nil {
		return err
	}
	return systemctl("status", serviceName)
}
