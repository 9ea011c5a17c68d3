// Package fetch is the throttled HTTP client used for all portal requests.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zetlaw/mako-vod/internal/mako"
)

const defaultTimeout = 10 * time.Second

// Browser-profile headers. The portal serves different markup to clients
// it does not recognize as browsers.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9,he;q=0.8",
	"Referer":         mako.BaseURL + mako.IndexPath,
	"Connection":      "keep-alive",
}

// Client fetches portal pages with shared headers and a rate limiter that
// throttles aggregate request rate against the portal.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter sets the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithHeaders replaces the default request headers.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		c.headers = h
	}
}

// WithUserAgent overrides only the User-Agent header, keeping the rest
// of the browser profile.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		headers := make(map[string]string, len(c.headers))
		for k, v := range c.headers {
			headers[k] = v
		}
		headers["User-Agent"] = ua
		c.headers = headers
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "fetch")
	}
}

// New creates a portal client. The default limiter allows one request per
// second with a small burst, matching the inter-request delay the portal
// tolerates.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		headers:    defaultHeaders,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a page as text.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetBytes fetches a URL as raw bytes. The playlist payload contains bytes
// that corrupt naive text decoding, so it must come through here.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

// Post sends a request body and returns the response as text.
func (c *Client) Post(ctx context.Context, url, contentType, body string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, url, contentType, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: portal returned %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if c.log != nil {
		c.log.Debug("fetched", "method", method, "url", url, "bytes", len(data), "duration_ms", time.Since(start).Milliseconds())
	}

	return data, nil
}
