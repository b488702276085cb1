package kuma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; the beacon talks to a single Kuma host, so the
// per-host caps are what matter here
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// heartbeat status codes as reported by Uptime Kuma.
const (
	heartbeatDown        = 0
	heartbeatUp          = 1
	heartbeatPending     = 2
	heartbeatMaintenance = 3
)

// Status is the condensed state of a single monitor.
//
// This is the kuma-internal representation; the root package exposes its own
// Status type and converts at the boundary, keeping this package free of
// upward imports.
type Status string

const (
	// StatusUp indicates the monitor's latest heartbeat reported healthy.
	StatusUp Status = "up"

	// StatusDown indicates the monitor's latest heartbeat reported a failure.
	StatusDown Status = "down"

	// StatusUnknown indicates the monitor's state could not be determined:
	// absent from the heartbeat document, an empty heartbeat list, or a
	// pending/maintenance heartbeat code.
	StatusUnknown Status = "unknown"
)

// Snapshot maps monitor ids to their condensed [Status].
//
// A Snapshot represents one heartbeat fetch in full; it is replaced
// wholesale on every successful poll and never merged field-by-field.
type Snapshot map[int]Status

// Status returns the state of the monitor with the given id.
// Monitors absent from the snapshot are [StatusUnknown].
func (s Snapshot) Status(id int) Status {
	if st, ok := s[id]; ok {
		return st
	}
	return StatusUnknown
}

// Monitor is one entry from the status-page document.
type Monitor struct {
	// ID is the numeric monitor id, the key used in heartbeat documents.
	ID int

	// Name is the display name shown on the status page.
	Name string
}

// Client fetches status and heartbeat documents from an Uptime Kuma
// status page.
//
// Client wraps a single shared [http.Client] with connection pooling and
// applies a per-request timeout via context. Response bodies are limited
// to 1MB. Both fetch methods issue exactly one request per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	slug       string
	timeout    time.Duration
}

// NewClient creates a [Client] for the status page identified by slug at
// baseURL.
//
// A trailing slash on baseURL is stripped. The timeout applies per request
// and should not exceed the polling interval, so a hung fetch cannot overrun
// the next tick.
func NewClient(baseURL, slug string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			// no global timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		slug:    slug,
		timeout: timeout,
	}
}

// FetchMonitors retrieves the status-page document and flattens its monitor
// groups into a single list of [Monitor] entries.
//
// This is the configure-time call that lets bindings reference monitors by
// display name. Group names are not included: heartbeat documents are keyed
// by monitor id only, so a group can never match a heartbeat entry.
func (c *Client) FetchMonitors(ctx context.Context) ([]Monitor, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/api/status-page/%s", c.baseURL, c.slug))
	if err != nil {
		return nil, err
	}

	var payload struct {
		PublicGroupList []struct {
			Name        string `json:"name"`
			MonitorList []struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			} `json:"monitorList"`
		} `json:"publicGroupList"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed status page: %w", err)
	}

	var monitors []Monitor
	for _, group := range payload.PublicGroupList {
		for _, m := range group.MonitorList {
			monitors = append(monitors, Monitor{ID: m.ID, Name: m.Name})
		}
	}
	return monitors, nil
}

// FetchHeartbeats retrieves the heartbeat document and condenses it into a
// [Snapshot].
//
// The document keys monitors by stringified id; each value is a
// chronological list of heartbeat entries, of which only the most recent
// decides the status. An empty monitor list is not an error (zero monitors
// reporting); an empty heartbeat list for a monitor yields [StatusUnknown].
func (c *Client) FetchHeartbeats(ctx context.Context) (Snapshot, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/api/status-page/heartbeat/%s", c.baseURL, c.slug))
	if err != nil {
		return nil, err
	}

	var payload struct {
		HeartbeatList map[string][]struct {
			Status int `json:"status"`
		} `json:"heartbeatList"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed heartbeat document: %w", err)
	}

	snapshot := make(Snapshot, len(payload.HeartbeatList))
	for key, entries := range payload.HeartbeatList {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("malformed heartbeat document: monitor key %q is not numeric", key)
		}
		if len(entries) == 0 {
			snapshot[id] = StatusUnknown
			continue
		}
		snapshot[id] = heartbeatStatus(entries[len(entries)-1].Status)
	}
	return snapshot, nil
}

// get performs one GET request with the client's timeout and body size limit.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// heartbeatStatus maps an Uptime Kuma heartbeat code to a [Status].
// Pending and maintenance are unknown: neither justifies flipping a lamp.
func heartbeatStatus(code int) Status {
	switch code {
	case heartbeatUp:
		return StatusUp
	case heartbeatDown:
		return StatusDown
	case heartbeatPending, heartbeatMaintenance:
		return StatusUnknown
	default:
		return StatusUnknown
	}
}
