package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kb-admin-client/internal/schema"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"
	defaultTimeout  = 60 * time.Second
)

type requestIDKey struct{}

// WithRequestID makes requests built from ctx carry id instead of a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Client issues authenticated requests against the backend REST API. It holds
// no per-call state; concurrent calls are independent.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	credentials CredentialProvider
	logger      zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a client rooted at baseURL. credentials may be nil for
// anonymous access.
func New(baseURL string, credentials CredentialProvider, logger zerolog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}
	if credentials == nil {
		credentials = Anonymous{}
	}

	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		credentials: credentials,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the root every request path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// NewRequest builds a request for path with query params and the headers
// resolved from the credential provider. path is in escaped form, so
// segments built from caller input go through url.PathEscape first.
func (c *Client) NewRequest(ctx context.Context, method, path string, params url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	escaped := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u.Path, u.RawPath = decoded, escaped
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	headers, err := c.authenticationHeaders(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID(ctx))
	return req, nil
}

// authenticationHeaders resolves the credential headers for one request. It
// may block while the provider fetches or refreshes a token.
func (c *Client) authenticationHeaders(ctx context.Context) (http.Header, error) {
	headers, err := c.credentials.AuthenticationHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authentication headers: %w", err)
	}
	return headers, nil
}

// Do sends req and logs its outcome. The caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get(RequestIDHeader)).
			Dur("latency", latency).
			Msg("Backend request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if inv, ok := c.credentials.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Dur("latency", latency).
		Msg("Backend request processed")
	return resp, nil
}

// Get fetches path and validates the response with s.
func Get[T any](ctx context.Context, c *Client, path string, params url.Values, s schema.Schema[T]) (T, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return send(c, req, s)
}

// Post sends body as JSON and validates the response with s.
func Post[T any](ctx context.Context, c *Client, path string, body any, s schema.Schema[T]) (T, error) {
	return sendJSON(ctx, c, http.MethodPost, path, body, s)
}

// Put sends body as JSON and validates the response with s.
func Put[T any](ctx context.Context, c *Client, path string, body any, s schema.Schema[T]) (T, error) {
	return sendJSON(ctx, c, http.MethodPut, path, body, s)
}

// PostNoContent sends body as JSON and only checks the response status.
func PostNoContent(ctx context.Context, c *Client, path string, body any) error {
	return sendNoContent(ctx, c, http.MethodPost, path, body)
}

// PutNoContent sends body as JSON and only checks the response status.
func PutNoContent(ctx context.Context, c *Client, path string, body any) error {
	return sendNoContent(ctx, c, http.MethodPut, path, body)
}

func sendNoContent(ctx context.Context, c *Client, method, path string, body any) error {
	req, err := c.jsonRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return HandleErrors(resp)
}

// Delete removes the resource at path.
func Delete(ctx context.Context, c *Client, path string) error {
	req, err := c.NewRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return HandleErrors(resp)
}

func sendJSON[T any](ctx context.Context, c *Client, method, path string, body any, s schema.Schema[T]) (T, error) {
	req, err := c.jsonRequest(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return send(c, req, s)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.NewRequest(ctx, method, path, nil, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func send[T any](c *Client, req *http.Request, s schema.Schema[T]) (T, error) {
	resp, err := c.Do(req)
	if err != nil {
		var zero T
		return zero, err
	}
	return HandleResponse(s)(resp)
}
