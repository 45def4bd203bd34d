package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "tdconv/1.0 (todoist converter)"
	DefaultTimeout   = 2 * time.Minute
)

var ErrTooLarge = errors.New("response exceeds size limit")

// Client downloads attachment bytes over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *rate.Limiter
}

// New creates a Client with the default timeout and user agent.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
	}
}

// WithTimeout sets the per-request timeout; zero disables it.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithMaxBytes caps the body size; zero means unlimited.
func (c *Client) WithMaxBytes(n int64) *Client {
	c.maxBytes = n
	return c
}

// WithRateLimit allows at most perSecond requests per second; zero or
// less removes the limit.
func (c *Client) WithRateLimit(perSecond float64) *Client {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Fetch streams the body at rawURL into w and returns the byte count.
func (c *Client) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return 0, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("read body: %w", err)
	}
	if c.maxBytes > 0 && n > c.maxBytes {
		return n, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBytes)
	}
	return n, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}
