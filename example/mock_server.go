package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// mockMonitor is one entry on the mock status page.
type mockMonitor struct {
	id   int
	name string
	// remaining polls until the status flips
	flipIn int
	up     bool
}

// StartMockKumaServer runs a mock Uptime Kuma status page whose monitors
// flip between up and down every few heartbeat fetches.
// Call this in a goroutine before starting the beacon.
func StartMockKumaServer(addr string) {
	var (
		mu       sync.Mutex
		monitors = []*mockMonitor{
			{id: 1, name: "Website", flipIn: 4, up: true},
			{id: 2, name: "API", flipIn: 7, up: true},
			{id: 3, name: "Database", flipIn: 10, up: false},
		}
	)

	http.HandleFunc("/api/status-page/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		list := make([]map[string]any, 0, len(monitors))
		for _, m := range monitors {
			list = append(list, map[string]any{"id": m.id, "name": m.name})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"publicGroupList": []map[string]any{
				{"name": "Services", "monitorList": list},
			},
		})
	})

	http.HandleFunc("/api/status-page/heartbeat/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		beats := make(map[string][]map[string]any, len(monitors))
		for _, m := range monitors {
			m.flipIn--
			if m.flipIn <= 0 {
				m.up = !m.up
				m.flipIn = 4 + m.id*3
				state := "down"
				if m.up {
					state = "up"
				}
				slog.Info("monitor flipped", "monitor", m.name, "now", state)
			}
			status := 0
			if m.up {
				status = 1
			}
			beats[strconv.Itoa(m.id)] = []map[string]any{
				{"status": status, "time": time.Now().UTC().Format(time.RFC3339)},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"heartbeatList": beats})
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
