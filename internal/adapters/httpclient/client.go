// Package httpclient is the shared transport for downstream HTTP collaborators: base URL
// resolution, optional OAuth2 client credentials, bounded exponential retry and size-limited
// response bodies.
package httpclient

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

	"github.com/cenkalti/backoff/v4"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultMaxBodyBytes bounds response bodies read from downstream services.
	DefaultMaxBodyBytes int64 = 32 << 20

	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
	errorBodyPreview       = 512
)

// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s %s: unexpected status %d", e.Service, e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ErrorClass implements the metrics error classifier.
func (e *StatusError) ErrorClass() string {
	return fmt.Sprintf("http_%d", e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options groups dependencies for Client.
type Options struct {
	Name            string                 // Required: service name used in logs, spans and errors
	Endpoint        config.ServiceEndpoint // Required: BaseURL must be set
	HTTPClient      *http.Client           // Optional: overrides the client built from Endpoint
	InitialInterval time.Duration          // Optional: first retry delay
	MaxBodyBytes    int64                  // Optional: defaults to DefaultMaxBodyBytes
	Tracer          trace.Tracer           // Optional
	Logger          *slog.Logger           // Optional
}

// Client issues requests against one downstream service. It is safe for concurrent use.
type Client struct {
	name            string
	base            *url.URL
	http            *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	maxBodyBytes    int64
	tracer          trace.Tracer
	logger          *slog.Logger
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, errors.New("service name is required")
	}
	ep := opts.Endpoint
	ep.Sanitize()
	if ep.BaseURL == "" {
		return nil, fmt.Errorf("%s: base url is required", name)
	}
	base, err := url.Parse(ep.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", name, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%s: invalid base url scheme %q", name, base.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = NewHTTPClient(ep)
	}
	interval := opts.InitialInterval
	if interval <= 0 {
		interval = defaultInitialInterval
	}
	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Tracer()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		name:            name,
		base:            base,
		http:            hc,
		maxRetries:      uint64(ep.MaxRetries), //nolint:gosec // Sanitize clamps MaxRetries to [0,10]
		initialInterval: interval,
		maxBodyBytes:    limit,
		tracer:          tracer,
		logger:          logger.With("component", "downstream", "service", name),
	}, nil
}

// NewHTTPClient builds an *http.Client for ep. When client credentials are configured the
// client fetches and refreshes bearer tokens itself.
func NewHTTPClient(ep config.ServiceEndpoint) *http.Client {
	base := &http.Client{Timeout: ep.Timeout}
	if !ep.UsesOAuth() {
		return base
	}
	cc := clientcredentials.Config{
		ClientID:     ep.ClientID,
		ClientSecret: ep.ClientSecret,
		TokenURL:     ep.TokenURL,
		Scopes:       ep.Scopes,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = ep.Timeout
	return hc
}

// Name returns the service name.
func (c *Client) Name() string { return c.name }

// Do sends req, retrying transport errors, 429 and 5xx responses with exponential backoff.
// Any other non-2xx status is returned as a *StatusError without retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var resp *Response
	err = tracing.Run(ctx, c.tracer, "downstream."+c.name, func(ctx context.Context, span trace.Span) error {
		attempts := 0
		op := func() (*Response, error) {
			attempts++
			return c.attempt(ctx, method, target, req)
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(c.policy(), c.maxRetries), ctx)
		notify := func(err error, wait time.Duration) {
			c.logger.WarnContext(ctx, "downstream call failed, retrying",
				"method", method, "path", req.Path, "error", err, "wait", wait)
		}

		var err error
		resp, err = backoff.RetryNotifyWithData(op, policy, notify)
		span.SetAttributes(attribute.Int("http.attempts", attempts))
		if resp != nil {
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		}
		return err
	},
		attribute.String("http.method", method),
		attribute.String("http.path", req.Path),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Header: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

func (c *Client) policy() *backoff.ExponentialBackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.initialInterval),
		backoff.WithMaxInterval(defaultMaxInterval),
		backoff.WithMaxElapsedTime(0),
	)
}

func (c *Client) attempt(ctx context.Context, method, target string, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: build request: %w", c.name, err))
	}
	for k, values := range req.Header {
		for _, v := range values {
			hreq.Header.Add(k, v)
		}
	}

	hresp, err := c.http.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("%s: send request: %w", c.name, err)
	}

	data, readErr := c.readBody(hresp.Body)
	if closeErr := hresp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		se := &StatusError{
			Service:    c.name,
			Method:     method,
			Path:       req.Path,
			StatusCode: hresp.StatusCode,
			Body:       preview(data),
		}
		if se.Temporary() {
			return nil, se
		}
		return nil, backoff.Permanent(se)
	}
	if readErr != nil {
		if errors.Is(readErr, ErrBodyTooLarge) {
			return nil, backoff.Permanent(fmt.Errorf("%s: %w", c.name, readErr))
		}
		return nil, fmt.Errorf("%s: read response body: %w", c.name, readErr)
	}

	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: data}, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, c.maxBodyBytes+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > c.maxBodyBytes {
		return data[:c.maxBodyBytes], ErrBodyTooLarge
	}
	return data, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	rel, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("%s: invalid path %q: %w", c.name, path, err)
	}
	base := *c.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	u := base.ResolveReference(rel)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func preview(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorBodyPreview {
		s = s[:errorBodyPreview] + "..."
	}
	return s
}
