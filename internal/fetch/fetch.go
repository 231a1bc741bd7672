// Package fetch retrieves product pages and parses them into documents.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kkandukuri/pricetracker/internal/ports"
)

// ErrBadStatus marks a non-200 response from a target server.
var ErrBadStatus = errors.New("unexpected status")

// Client fetches a URL over HTTP and returns the parsed document.
type Client struct {
	client    *http.Client
	userAgent string
}

var _ ports.Fetcher = (*Client)(nil)

// New builds a fetcher; a nil http.Client gets a default with the timeout.
func New(client *http.Client, timeout time.Duration, userAgent string) *Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{client: client, userAgent: userAgent}
}

// Fetch retrieves the URL and parses the body. Any failure here is a
// per-target condition: callers record it against the item and move on.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s from %s", ErrBadStatus, resp.Status, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}
