// Package proxy implements the CORS-proxy fetch collaborator. The proxy
// wraps the target resource's raw body in a JSON envelope, which lets the
// service fetch feeds and pages from origins that refuse direct requests.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client fetches remote resources through a CORS proxy
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a proxy client. baseURL is the proxy endpoint, the
// target URL is passed as its "url" query parameter.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// envelope is the proxy response shape
type envelope struct {
	Contents string `json:"contents"`
}

// Fetch retrieves the raw body of target through the proxy
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid target URL: %s", target)
	}

	proxyURL := c.baseURL + "?url=" + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	addBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, target)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode proxy response for %s: %w", target, err)
	}

	return env.Contents, nil
}
