package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"runmeter.sh/stats"
)

// StoreClient fetches raw samples from the collector daemon's query
// interface. It performs no interpretation beyond JSON decoding; a
// failure is the calling domain's failure and other domains proceed.
type StoreClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStoreClient returns a client for the query interface at baseURL.
func NewStoreClient(baseURL string) *StoreClient {
	return &StoreClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CPU returns every CPU sample recorded since the daemon started.
func (c *StoreClient) CPU(ctx context.Context) ([]stats.CPU, error) {
	var out []stats.CPU
	if err := c.get(ctx, "/cpu", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Memory returns every memory sample recorded since the daemon started.
func (c *StoreClient) Memory(ctx context.Context) ([]stats.Memory, error) {
	var out []stats.Memory
	if err := c.get(ctx, "/memory", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Network returns every network sample recorded since the daemon started.
func (c *StoreClient) Network(ctx context.Context) ([]stats.Network, error) {
	var out []stats.Network
	if err := c.get(ctx, "/network", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Disk returns every disk sample recorded since the daemon started.
func (c *StoreClient) Disk(ctx context.Context) ([]stats.Disk, error) {
	var out []stats.Disk
	if err := c.get(ctx, "/disk", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TriggerCollect forces the daemon to record one final sample round so
// activity right before the report is not lost to the sampling interval.
func (c *StoreClient) TriggerCollect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collect", nil)
	if err != nil {
		return fmt.Errorf("failed to create collect request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to trigger collect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collect request failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *StoreClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("query %s failed with status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
