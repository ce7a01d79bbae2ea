// Package httpx builds the shared HTTP client used by the site handlers,
// the archive submitters, and redirect resolution (the feed poller uses its
// own plain http.Client), following the teacher's
// fetcher.go request shape with randomized User-Agent rotation grounded on
// davidroman0O-4chan-archiver's archiver.go.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
)

// Client wraps *http.Client with per-request User-Agent rotation and a
// redirect-following resolver used by internal/urlnormalize for short-host
// canonicalization.
type Client struct {
	http      *http.Client
	userAgent string // fixed UA; empty means rotate randomly per request
}

// New builds a Client with the given timeout. A fixed userAgent may be
// passed; an empty string rotates a random UA per request.
func New(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

func (c *Client) agent() string {
	if c.userAgent != "" {
		return c.userAgent
	}
	return uarand.GetRandom()
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", c.agent())
	return req, nil
}

// GetBytes fetches a URL's body as raw bytes.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %q: %w", url, err)
	}
	return body, nil
}

// GetHTML fetches a URL and parses it as an HTML document.
func (c *Client) GetHTML(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %q: %w", url, err)
	}
	return doc, nil
}

// ResolveRedirect follows a URL's redirect chain (bounded by the client's
// http.Client default policy) and returns the final URL, implementing
// urlnormalize.Resolver.
func (c *Client) ResolveRedirect(ctx context.Context, rawURL string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving redirect for %q: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String(), nil
	}
	return rawURL, nil
}

// Get performs a GET request and returns the final status code and URL
// without requiring a 200, for callers (submitters) that need to inspect
// non-2xx responses themselves.
func (c *Client) Get(ctx context.Context, rawURL string) (status int, finalURL string, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return 0, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("fetching %q: %w", rawURL, err)
	}
	defer resp.Body.Close()
	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return resp.StatusCode, final, nil
}

// StatusOf performs a HEAD request and returns the final HTTP status code,
// used by handlers to record "captured final status" on a Capture.
func (c *Client) StatusOf(ctx context.Context, rawURL string) (int, error) {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("checking status of %q: %w", rawURL, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
