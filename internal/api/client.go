// Package api implements the HTTP transport to the assistant service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/charmbracelet/log"

	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
)

// maxErrorBody limits how much of a failed response is read for diagnostics
const maxErrorBody = 4096

// Client talks to the assistant service. It holds no conversation state.
type Client struct {
	httpClient     tls_client.HttpClient
	baseURL        string
	timeoutSeconds int
	logger         *log.Logger
	mu             sync.RWMutex
	closed         bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithBaseURL sets the service address, e.g. http://localhost:8000
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeoutSeconds bounds each request. 0 means no timeout, which is the
// default since answers stream for as long as the model generates.
func WithTimeoutSeconds(seconds int) ClientOption {
	return func(c *Client) {
		if seconds >= 0 {
			c.timeoutSeconds = seconds
		}
	}
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL: models.DefaultBaseURL,
		logger:  logging.Discard(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Close releases idle connections. Further requests fail.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// BaseURL returns the service address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetHTTPClient returns the underlying HTTP client
func (c *Client) GetHTTPClient() tls_client.HttpClient {
	return c.httpClient
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + endpoint
}

// newRequest builds a request with the default headers applied
func (c *Client) newRequest(ctx context.Context, endpoint string, body io.Reader, contentType string) (*fhttp.Request, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, c.url(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range models.DefaultHeaders() {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// newJSONRequest builds a POST carrying {"query": query}
func (c *Client) newJSONRequest(ctx context.Context, endpoint, query string) (*fhttp.Request, error) {
	payload, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.newRequest(ctx, endpoint, bytes.NewReader(payload), "application/json")
}

// do sends req and logs the outcome
func (c *Client) do(req *fhttp.Request) (*fhttp.Response, error) {
	c.logger.Debug("sending request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "url", req.URL.String(), "err", err)
		return nil, err
	}

	c.logger.Debug("response received", "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}

// queryRequest is the JSON body of /ask and /voice-output
type queryRequest struct {
	Query string `json:"query"`
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// readErrorBody drains up to maxErrorBody bytes of a failed response
func readErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return string(data)
}
