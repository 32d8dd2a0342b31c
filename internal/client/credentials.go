package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// CredentialProvider resolves the headers that authenticate one request.
// Implementations must be safe for concurrent use.
type CredentialProvider interface {
	AuthenticationHeaders(ctx context.Context) (http.Header, error)
}

// Anonymous sends no credentials.
type Anonymous struct{}

func (Anonymous) AuthenticationHeaders(context.Context) (http.Header, error) {
	return http.Header{}, nil
}

// BearerToken authenticates with a fixed API key.
type BearerToken string

func (t BearerToken) AuthenticationHeaders(context.Context) (http.Header, error) {
	headers := http.Header{}
	if t != "" {
		headers.Set("Authorization", "Bearer "+string(t))
	}
	return headers, nil
}

// TokenSource fetches a fresh access token and reports when it expires.
type TokenSource func(ctx context.Context) (token string, expiresAt time.Time, err error)

// CachedTokenCredentials reuses a fetched token until shortly before it
// expires. Concurrent callers share one refresh, and a caller waiting on
// another's refresh gives up when its own context ends.
type CachedTokenCredentials struct {
	source TokenSource
	leeway time.Duration
	now    func() time.Time

	refresh chan struct{}

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewCachedTokenCredentials(source TokenSource, leeway time.Duration) *CachedTokenCredentials {
	return &CachedTokenCredentials{
		source:  source,
		leeway:  leeway,
		now:     time.Now,
		refresh: make(chan struct{}, 1),
	}
}

func (c *CachedTokenCredentials) AuthenticationHeaders(ctx context.Context) (http.Header, error) {
	if token, ok := c.cached(); ok {
		return bearerHeaders(token), nil
	}

	select {
	case c.refresh <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.refresh }()

	// Another caller may have refreshed while this one waited.
	if token, ok := c.cached(); ok {
		return bearerHeaders(token), nil
	}

	token, expiresAt, err := c.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}
	if token == "" {
		return nil, errors.New("token source returned an empty token")
	}

	c.mu.Lock()
	c.token = token
	c.expiresAt = expiresAt
	c.mu.Unlock()
	return bearerHeaders(token), nil
}

func (c *CachedTokenCredentials) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !c.now().Add(c.leeway).Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// Invalidate drops the cached token so the next request fetches a new one.
func (c *CachedTokenCredentials) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func bearerHeaders(token string) http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	return headers
}

type forwardedKey struct{}

// WithForwardedCredentials stores the caller's Authorization and Cookie
// headers in ctx for ForwardedCredentials to pass on.
func WithForwardedCredentials(ctx context.Context, incoming http.Header) context.Context {
	headers := http.Header{}
	for _, key := range []string{"Authorization", "Cookie"} {
		if v := incoming.Get(key); v != "" {
			headers.Set(key, v)
		}
	}
	return context.WithValue(ctx, forwardedKey{}, headers)
}

// ForwardedCredentials relays the credentials of the request being served,
// so each backend call acts as the end user.
type ForwardedCredentials struct{}

func (ForwardedCredentials) AuthenticationHeaders(ctx context.Context) (http.Header, error) {
	headers, ok := ctx.Value(forwardedKey{}).(http.Header)
	if !ok {
		return http.Header{}, nil
	}
	return headers.Clone(), nil
}

// ForwardedOr relays forwarded credentials when ctx carries any and resolves
// fallback otherwise.
func ForwardedOr(fallback CredentialProvider) CredentialProvider {
	return forwardedOr{fallback: fallback}
}

type forwardedOr struct {
	fallback CredentialProvider
}

func (f forwardedOr) AuthenticationHeaders(ctx context.Context) (http.Header, error) {
	if headers, ok := ctx.Value(forwardedKey{}).(http.Header); ok && len(headers) > 0 {
		return headers.Clone(), nil
	}
	if f.fallback == nil {
		return http.Header{}, nil
	}
	return f.fallback.AuthenticationHeaders(ctx)
}
