// Package httpclient is the JSON-over-HTTP client shared by the lookup
// providers. Transient failures are retried with exponential backoff.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// maxErrorBody caps how much of an error response is kept in HTTPError.
const maxErrorBody = 512

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %s: %s", e.Method, e.URL, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	RetryableStatusCodes []int
}

// DefaultRetryConfig retries twice on throttling and server errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:           2,
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          2 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// Client performs JSON GET requests against a base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the base URL requests are resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithTimeout bounds each individual attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithRetryConfig replaces the retry policy. MaxRetries of 0 disables retries.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		userAgent:  "addressd/1.0",
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches path and decodes the JSON body into out. Non-2xx
// responses are returned as *HTTPError after retries are exhausted.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	url := c.resolve(path)
	log := zerolog.Ctx(ctx)
	start := time.Now()

	var body []byte
	operation := func() error {
		b, err := c.do(ctx, url)
		if err != nil {
			if !c.retryable(err) {
				return backoff.Permanent(err)
			}
			log.Debug().Err(err).Str("url", url).Msg("retrying request")
			return err
		}
		body = b
		return nil
	}

	var err error
	if c.retry.MaxRetries > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.retry.InitialInterval
		exp.MaxInterval = c.retry.MaxInterval
		exp.MaxElapsedTime = 0
		err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retry.MaxRetries)), ctx))
	} else {
		err = operation()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
	}

	if err != nil {
		if !IsNotFound(err) {
			log.Warn().Err(err).Str("url", url).Dur("duration", time.Since(start)).Msg("HTTP request failed")
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	log.Debug().Str("url", url).Dur("duration", time.Since(start)).Msg("HTTP request successful")
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        url,
			Method:     http.MethodGet,
			Body:       string(b),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func (c *Client) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		return true
	}
	for _, code := range c.retry.RetryableStatusCodes {
		if he.StatusCode == code {
			return true
		}
	}
	return false
}

func (c *Client) resolve(path string) string {
	if c.baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
