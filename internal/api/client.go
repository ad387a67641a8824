// Package api is a typed client for the BudgetWise REST backend.
//
// Every request carries a bearer token taken from an injected
// oauth2.TokenSource. The client never fetches tokens itself.
package api

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

	"golang.org/x/oauth2"
)

// DefaultBaseURL matches the backend's local development address.
const DefaultBaseURL = "http://localhost:8081/api"

// maxBodyBytes caps a backend response. Larger bodies fail rather than
// being cut short.
var maxBodyBytes int64 = 10 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type options struct {
	base    http.RoundTripper
	timeout time.Duration
}

type Option func(*options)

// WithTransport sets the transport underneath the bearer transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New returns a client for baseURL authenticated by tokens.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) *Client {
	o := options{base: http.DefaultTransport, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: o.timeout,
			Transport: &oauth2.Transport{
				Source: readySource{tokens},
				Base:   o.base,
			},
		},
	}
}

// readySource reports a missing or failing token as ErrSessionNotReady.
type readySource struct {
	src oauth2.TokenSource
}

func (s readySource) Token() (*oauth2.Token, error) {
	if s.src == nil {
		return nil, ErrSessionNotReady
	}
	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotReady, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrSessionNotReady
	}
	return tok, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do performs the request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotReady):
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrSessionNotReady)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %v", method, path, ErrNetwork, err)
	}
	if int64(len(data)) > maxBodyBytes {
		return nil, fmt.Errorf("%s %s: %w (over %d bytes)", method, path, ErrBodyTooLarge, maxBodyBytes)
	}
	slog.DebugContext(ctx, "Backend call",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	data, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
