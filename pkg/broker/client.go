package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/logging"
	"github.com/getmockd/mockd-contract/pkg/tracing"
)

const (
	// DefaultTimeout bounds every broker request.
	DefaultTimeout = 30 * time.Second
	// DefaultCacheTTL is how long fetched specs are reused.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheSize caps the number of cached specs.
	DefaultCacheSize = 128
	// LatestVersion is the deployment alias resolved by the broker.
	LatestVersion = "latest"

	apiPrefix = "/api/v1"
	maxBody   = 32 << 20
)

// Client talks to the broker API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
	cacheTTL   time.Duration
	cacheSize  int
	specs      *expirable.LRU[string, *contract.Spec]
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCacheTTL sets how long specs are cached. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithCacheSize caps the number of cached specs.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// New creates a broker client for baseURL (e.g. "https://broker.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: tracing.Transport(http.DefaultTransport),
		},
		cacheTTL:  DefaultCacheTTL,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Component(logging.OrNop(c.logger), "broker")
	if c.cacheTTL > 0 && c.cacheSize > 0 {
		c.specs = expirable.NewLRU[string, *contract.Spec](c.cacheSize, nil, c.cacheTTL)
	}
	return c
}

// BaseURL returns the broker URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PurgeCache drops every cached spec.
func (c *Client) PurgeCache() {
	if c.specs != nil {
		c.specs.Purge()
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (int, []byte, error) {
	fullURL := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, &APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot reach broker at %s: %v", c.baseURL, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("broker request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr, _ := parseError(resp.StatusCode, data)
		return resp.StatusCode, data, apiErr
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, data, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, data, nil
}

// notFound converts a 404 on a spec lookup into a *SpecNotFoundError.
func notFound(err error, body []byte, service, ver, env string) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return err
	}
	_, eb := parseError(apiErr.StatusCode, body)
	return &SpecNotFoundError{
		Service:           service,
		Version:           ver,
		Environment:       env,
		Message:           eb.Message,
		AvailableVersions: eb.AvailableVersions,
		Suggestion:        eb.Suggestion,
	}
}
