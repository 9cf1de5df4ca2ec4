package redfish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Resource roots below the service base URL
const (
	RootPath        = "/redfish/v1"
	StoragePath     = RootPath + "/Storage"
	SystemsPath     = RootPath + "/Systems"
	TargetsPath     = RootPath + "/targets_systems"
	EndpointsPath   = RootPath + "/Fabrics/NVMe-oF/Endpoints"
	ConnectionsPath = RootPath + "/Fabrics/NVMe-oF/Connections"
)

// Client reads a Redfish storage service
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
	limit      int
}

// NewClient creates a client for the service at baseURL, e.g.
// "http://10.0.0.1:8000". A bare host:port is taken as plain http.
func NewClient(baseURL string, log logrus.FieldLogger) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		limit:      8,
	}
}

// ForTarget returns a client for a target system's own service
func (c *Client) ForTarget(t TargetSystem) *Client {
	target := NewClient(t.Address(), c.log.WithField("target", t.Name))
	target.httpClient = c.httpClient
	target.limit = c.limit
	return target
}

// SetTimeout changes the per-request timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get fetches path and decodes the JSON reply into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.log.WithField("path", path).Debug("redfish GET")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to get %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) collection(ctx context.Context, path string) ([]string, error) {
	var coll Collection
	if err := c.get(ctx, path, &coll); err != nil {
		return nil, err
	}
	return coll.IDs(), nil
}

// Subsystems lists the storage subsystem ids
func (c *Client) Subsystems(ctx context.Context) ([]string, error) {
	return c.collection(ctx, StoragePath)
}

// Systems lists the host system ids
func (c *Client) Systems(ctx context.Context) ([]string, error) {
	return c.collection(ctx, SystemsPath)
}

// TargetSystems lists the target servers and their transports
func (c *Client) TargetSystems(ctx context.Context) ([]TargetSystem, error) {
	var list targetList
	if err := c.get(ctx, TargetsPath, &list); err != nil {
		return nil, err
	}
	return list.Targets, nil
}
