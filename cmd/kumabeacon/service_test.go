package main

import (
	"strings"
	"testing"
)

// TestRenderUnit verifies the generated unit file wires the binary, config
// path, and systemd ordering directives correctly.
func TestRenderUnit(t *testing.T) {
	unit := renderUnit("/usr/local/bin/kumabeacon", "/etc/kumabeacon/beacon.yaml")

	expectedLines := []string{
		"Description=Uptime Kuma hardware beacon",
		"After=network-online.target",
		"Wants=network-online.target",
		"ExecStart=/usr/local/bin/kumabeacon start -c /etc/kumabeacon/beacon.yaml",
		"Restart=on-failure",
		"WantedBy=multi-user.target",
	}

	for _, line := range expectedLines {
		if !strings.Contains(unit, line) {
			t.Errorf("unit file missing %q\nGot:\n%s", line, unit)
		}
	}
}
