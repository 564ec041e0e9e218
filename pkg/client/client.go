// Package client is a thin HTTP client for the crawler status API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gaslibhub/crawler/internal/domain"
	"github.com/gaslibhub/crawler/internal/stats"
)

// Client is the API client for the crawler status server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Health checks whether the status server is reachable
func (c *Client) Health(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unexpected health status: %s", response.Status)
	}
	return nil
}

// GetStats retrieves catalog-level statistics
func (c *Client) GetStats(ctx context.Context) (*stats.CatalogStats, error) {
	var response struct {
		Data *stats.CatalogStats `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/stats", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRecentLibraries retrieves the most recently updated catalog entries
func (c *Client) GetRecentLibraries(ctx context.Context, limit int) ([]*domain.CatalogEntry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*domain.CatalogEntry `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/libraries/recent", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
