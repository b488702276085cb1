// Package config provides YAML configuration parsing for the beacon.
//
// This package enables running the beacon as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	url: https://status.example.com
//	slug: default
//	pin_mode: BCM
//	interval: 30s
//	timeout: 10s
//	listen: ":9770"
//
//	services:
//	  - name: Website
//	    pin: 17
//	  - id: 4
//	    pin: [22, 27]
//	    reverse: true
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minInterval is the minimum allowed polling interval for production configs.
// This prevents accidental DoS of the status page with overly aggressive polling.
const minInterval = 1 * time.Second

// Config is the root configuration structure for the beacon.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// URL is the base URL of the Uptime Kuma instance.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Slug identifies the status page to poll. Defaults to "default".
	// Supports environment variable substitution.
	Slug string `yaml:"slug"`

	// PinMode selects the GPIO numbering scheme: "BCM" or "BOARD".
	// Defaults to BCM.
	PinMode string `yaml:"pin_mode"`

	// Interval is the time between poll cycles.
	// Accepts duration strings like "30s", "1m" or a bare number of seconds.
	// Defaults to 30s.
	Interval Duration `yaml:"interval"`

	// Timeout is the per-fetch HTTP timeout. Must not exceed the interval.
	// Defaults to 10s, capped at the interval.
	Timeout Duration `yaml:"timeout"`

	// Listen is the optional address for the status HTTP server, e.g. ":9770".
	// Empty disables the server.
	Listen string `yaml:"listen"`

	// Simulate forces the in-memory GPIO backend regardless of platform.
	Simulate bool `yaml:"simulate"`

	// Services binds monitors to pins.
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig binds one monitor to a group of output pins.
//
// Exactly one of Name or ID must be set: Name is resolved against the
// status page's monitor list at startup, ID skips resolution.
type ServiceConfig struct {
	// Name is the monitor's display name on the status page.
	Name string `yaml:"name"`

	// ID is the numeric monitor id. Takes the place of Name.
	ID int `yaml:"id"`

	// Pin is the output pin or pins driven by this monitor.
	// Accepts a single number or a list.
	Pin PinList `yaml:"pin"`

	// Reverse inverts the mapping: pins go high when the monitor is down.
	Reverse bool `yaml:"reverse"`

	// Enabled can be set to false to keep the entry without acting on it.
	// Defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the service should be acted on.
func (s *ServiceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// label returns the identifier used in error messages.
func (s *ServiceConfig) label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", s.ID)
}

// Duration wraps time.Duration for YAML unmarshalling.
//
// It accepts both duration strings ("30s", "1m") and bare numbers,
// which are interpreted as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var secs float64
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// PinList wraps a pin group for YAML unmarshalling.
//
// It accepts both a single scalar and a sequence:
//
//	pin: 17
//	pin: [22, 27]
type PinList []int

// UnmarshalYAML implements yaml.Unmarshaler for PinList.
func (p *PinList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("pin must be a number or a list of numbers: %w", err)
		}
		*p = PinList{n}
		return nil
	}

	if node.Kind == yaml.SequenceNode {
		var ns []int
		if err := node.Decode(&ns); err != nil {
			return fmt.Errorf("pin must be a number or a list of numbers: %w", err)
		}
		*p = PinList(ns)
		return nil
	}

	return fmt.Errorf("pin must be a number or a list of numbers, got %v", node.Kind)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL and Slug values.
// Defaults are applied for Slug ("default"), PinMode (BCM),
// Interval (30s), and Timeout (10s, capped at the interval).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Slug == "" {
		cfg.Slug = "default"
	}
	if cfg.PinMode == "" {
		cfg.PinMode = "BCM"
	}
	if cfg.Interval == 0 {
		cfg.Interval = Duration(30 * time.Second)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(10 * time.Second)
		if cfg.Timeout > cfg.Interval {
			cfg.Timeout = cfg.Interval
		}
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	expanded, err := expandEnvVars(c.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	c.URL = expanded

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	expanded, err = expandEnvVars(c.Slug)
	if err != nil {
		return fmt.Errorf("slug: %w", err)
	}
	c.Slug = expanded

	if c.PinMode != "BCM" && c.PinMode != "BOARD" {
		return fmt.Errorf("pin_mode must be BCM or BOARD, got %q", c.PinMode)
	}

	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Timeout.Duration() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Duration())
	}
	if c.Timeout.Duration() > c.Interval.Duration() {
		return fmt.Errorf("timeout %s must not exceed interval %s", c.Timeout.Duration(), c.Interval.Duration())
	}

	if len(c.Services) == 0 {
		return errors.New("at least one service must be defined")
	}

	claimed := make(map[int]string)
	for i := range c.Services {
		svc := &c.Services[i]

		if svc.Name == "" && svc.ID == 0 {
			return fmt.Errorf("services[%d]: either name or id is required", i)
		}
		if svc.Name != "" && svc.ID != 0 {
			return fmt.Errorf("services[%d] (%s): name and id are mutually exclusive", i, svc.label())
		}
		if svc.ID < 0 {
			return fmt.Errorf("services[%d] (%s): id must be positive, got %d", i, svc.label(), svc.ID)
		}

		if len(svc.Pin) == 0 {
			return fmt.Errorf("services[%d] (%s): at least one pin is required", i, svc.label())
		}
		seen := make(map[int]struct{}, len(svc.Pin))
		for _, pin := range svc.Pin {
			if pin <= 0 {
				return fmt.Errorf("services[%d] (%s): pin must be positive, got %d", i, svc.label(), pin)
			}
			if _, dup := seen[pin]; dup {
				return fmt.Errorf("services[%d] (%s): duplicate pin %d", i, svc.label(), pin)
			}
			seen[pin] = struct{}{}
		}

		// disabled entries keep their pins out of the overlap check
		if !svc.IsEnabled() {
			continue
		}
		for _, pin := range svc.Pin {
			if owner, taken := claimed[pin]; taken {
				return fmt.Errorf("services[%d] (%s): pin %d already claimed by %s", i, svc.label(), pin, owner)
			}
			claimed[pin] = svc.label()
		}
	}

	return nil
}
