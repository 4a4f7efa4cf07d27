package bump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/obentoo/checkbump/internal/common/version"
)

// Error variables for fetch errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
	// ErrUnexpectedStatus is returned for any non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrUnsupportedScheme is returned for URLs that are neither http(s) nor file
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrResponseTooLarge is returned when a body exceeds MaxBodySize
	ErrResponseTooLarge = errors.New("response body too large")
)

// MaxBodySize bounds how much of an upstream resource is kept in memory
const MaxBodySize = 32 << 20

// envVarPattern matches ${VAR_NAME} syntax for environment variable substitution
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first one (default: 0)
	MaxRetries int
	// BaseDelay is the initial delay before first retry (default: 1s)
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 4s)
	MaxDelay time.Duration
	// Timeout is the timeout for each individual request (default: 30s)
	Timeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration: a single
// attempt, with 1s, 2s, 4s backoff once retries are enabled.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// RetryableHTTPClient fetches upstream resources.
// It retries 5xx and 429 responses with exponential backoff and reads
// file:// URLs straight from disk.
type RetryableHTTPClient struct {
	client *http.Client
	config RetryConfig
	// delayFunc allows overriding the delay function for testing
	delayFunc func(context.Context, time.Duration)
	userAgent string
	// githubToken is only sent to api.github.com
	githubToken string
}

// NewRetryableHTTPClient creates a client with the default retry configuration.
func NewRetryableHTTPClient() *RetryableHTTPClient {
	return NewRetryableHTTPClientWithConfig(DefaultRetryConfig())
}

// NewRetryableHTTPClientWithConfig creates a client with a custom retry configuration.
func NewRetryableHTTPClientWithConfig(config RetryConfig) *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:    config,
		delayFunc: sleepContext,
		userAgent: version.UserAgent(),
	}
}

// SetHTTPClient sets a custom underlying HTTP client (useful for testing).
func (c *RetryableHTTPClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDelayFunc sets a custom delay function (useful for testing).
// The function receives the delay duration that would normally be slept.
func (c *RetryableHTTPClient) SetDelayFunc(fn func(time.Duration)) {
	c.delayFunc = func(_ context.Context, d time.Duration) { fn(d) }
}

// SetUserAgent overrides the User-Agent header; empty keeps the default.
func (c *RetryableHTTPClient) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// SetGitHubToken sets the GitHub API token. ${VAR} references are expanded
// from the environment.
func (c *RetryableHTTPClient) SetGitHubToken(token string) {
	c.githubToken = SubstituteEnvVars(token)
}

// Config returns the current retry configuration.
func (c *RetryableHTTPClient) Config() RetryConfig {
	return c.config
}

// Fetch returns the body of rawURL. Any failure, including a non-2xx
// status, is returned as an error; the caller decides whether it is fatal.
func (c *RetryableHTTPClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f)
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return readLimited(resp.Body)
}

// DoWithContext executes an HTTP request with retry logic and context support.
// It retries on network errors and 5xx server errors with exponential backoff.
func (c *RetryableHTTPClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			c.delayFunc(ctx, c.calculateDelay(attempt))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		resp, err := c.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if isTimeoutError(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
			continue
		}

		if c.shouldRetry(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
			continue
		}

		return resp, nil
	}

	if c.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

// calculateDelay calculates the delay for a given retry attempt.
// Attempt 1: 1s, Attempt 2: 2s, Attempt 3: 4s
func (c *RetryableHTTPClient) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := 1 << (attempt - 1)
	delay := c.config.BaseDelay * time.Duration(multiplier)

	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	return delay
}

// shouldRetry reports whether a status is worth retrying (5xx and 429)
func (c *RetryableHTTPClient) shouldRetry(statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return statusCode == http.StatusTooManyRequests
}

// applyHeaders sets the User-Agent and, for GitHub API URLs, the token
func (c *RetryableHTTPClient) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)

	if c.githubToken != "" && isGitHubAPIURL(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
	}
}

// SubstituteEnvVars replaces ${VAR_NAME} patterns in a string with
// the corresponding environment variable values.
// If an environment variable is not set, the pattern is replaced with an empty string.
func SubstituteEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// isGitHubAPIURL checks if a URL points at the GitHub API host.
func isGitHubAPIURL(u *url.URL) bool {
	return strings.EqualFold(u.Hostname(), "api.github.com")
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodySize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}
