// Package http wraps the HTTP operations the radiko API bindings need:
// plain GETs for XML documents, header-carrying GETs for the auth
// handshake (auth1 answers through response headers), and form POSTs
// for the premium login.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// Client wraps HTTP operations with radiko-friendly defaults.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// The client is configured with a 30 second timeout and a fixed
// User-Agent header. Media transfer does not go through this client;
// segment fetching is the external tool's job.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "radirec",
	}
}

// Get performs a GET request and returns the response body.
//
// Returns an error if the request fails, the response status is not
// 200 OK, or reading the body fails.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.GetWithHeaders(ctx, url, nil)
	return body, err
}

// GetWithHeaders performs a GET request with extra request headers and
// returns both the response body and the response headers.
//
// The auth handshake needs this: auth1 returns its token and key
// coordinates as X-Radiko-* response headers rather than in the body.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return body, resp.Header, nil
}

// PostForm performs a form-encoded POST request and returns the
// response body.
func (c *Client) PostForm(ctx context.Context, url string, form neturl.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
