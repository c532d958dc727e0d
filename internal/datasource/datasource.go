// Package datasource fetches news articles and market bars from remote
// APIs. All fetchers share an explicitly constructed Client whose lifetime
// is one pipeline run.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// --- Sentinel errors ---

// ErrRateLimited is returned when a source answers 429 Too Many Requests.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrMissingAPIKey is returned when a source that needs a key has none.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrUnknownSource is returned for an unsupported news source name.
var ErrUnknownSource = errors.New("unknown news source")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Client ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "news2alpha/1.0 (+https://github.com/slowdive42/news2alpha)"

// ClientConfig configures a Client.
type ClientConfig struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64 // <= 0 disables rate limiting
	Burst             int
}

// Client is the HTTP plumbing shared by the fetchers of one run. Create it
// with NewClient and release it with Close.
type Client struct {
	http      *http.Client
	transport *http.Transport
	limiter   *rate.Limiter
	userAgent string
}

// NewClient creates a Client with its own transport and rate limiter.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport: transport,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		userAgent: cfg.UserAgent,
	}
}

// Close releases idle connections. The Client must not be used afterwards.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// get performs a rate-limited GET request and returns the response body.
// The caller is responsible for closing the returned ReadCloser.
func (c *Client) get(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html, application/xml, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", req.URL.Redacted(), err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}
	return resp.Body, nil
}

// getJSON performs get and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
