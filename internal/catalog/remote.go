package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stagehand/pkg/logging"
)

// RemoteClient talks to the remote data API.
type RemoteClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewRemoteClient creates a client for baseURL. A zero timeout means no
// timeout.
func NewRemoteClient(baseURL string, timeout time.Duration) (*RemoteClient, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote base URL %q: must be absolute", baseURL)
	}
	return &RemoteClient{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}, nil
}

// BaseURL returns the API root.
func (c *RemoteClient) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the underlying client.
func (c *RemoteClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Ping checks that the API answers on /health.
func (c *RemoteClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote API unhealthy: status=%d", resp.StatusCode)
	}
	logging.Debug("Remote", "Remote API at %s is healthy", c.baseURL)
	return nil
}

// GetJSON fetches path relative to the API root and decodes it into out.
func (c *RemoteClient) GetJSON(ctx context.Context, path string, out any) error {
	return getJSON(ctx, c.httpClient, c.url(path), out)
}

// Close releases idle connections.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *RemoteClient) url(path string) string {
	return c.baseURL.String() + "/" + strings.TrimPrefix(path, "/")
}

func getJSON(ctx context.Context, client *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status=%d", target, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response of %s: %w", target, err)
	}
	return nil
}
