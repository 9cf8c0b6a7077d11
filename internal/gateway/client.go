package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// ErrorObserver is notified of every error before it is returned.
// The session gate uses it to react to auth failures.
type ErrorObserver func(err *Error)

// Client is a thin HTTP client for the todo backend REST API. It handles
// Bearer token authentication, JSON marshaling, and error normalization.
// It never retries; retry policy belongs to the callers.
type Client struct {
	baseURL    string
	tokens     TokenSource
	observer   ErrorObserver
	httpClient *http.Client
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithErrorObserver registers a hook that sees every returned error.
func WithErrorObserver(fn ErrorObserver) Option {
	return func(c *Client) { c.observer = fn }
}

// NewClient creates a new backend client. The baseURL should be the
// root URL of the backend (e.g., http://localhost:5000). tokens may be
// nil for clients that only call the auth endpoints.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetErrorObserver installs the error hook after construction. The
// session gate and the client reference each other, so one side has to
// be wired late.
func (c *Client) SetErrorObserver(fn ErrorObserver) {
	c.observer = fn
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody covers the error payload shapes the backend produces.
type errorBody struct {
	Message string              `json:"message"`
	Title   string              `json:"title"`
	Errors  map[string][]string `json:"errors"`
}

// do is the core HTTP method that builds the request, handles auth,
// timeouts, JSON (de)serialization, and error classification.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	authenticated bool,
	body interface{},
	result interface{},
) error {
	op := method + " " + path

	err := c.roundTrip(ctx, op, method, path, authenticated, body, result)
	if err != nil {
		var gwErr *Error
		if !errors.As(err, &gwErr) {
			gwErr = &Error{Kind: KindUnknown, Op: op, Message: defaultMessage(KindUnknown), Err: err}
		}
		if c.observer != nil {
			c.observer(gwErr)
		}
		return gwErr
	}
	return nil
}

func (c *Client) roundTrip(
	ctx context.Context,
	op, method, path string,
	authenticated bool,
	body interface{},
	result interface{},
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Op: op, Message: "could not encode request", Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Message: "could not build request", Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{
			Kind:    KindNetwork,
			Op:      op,
			Message: defaultMessage(KindNetwork),
			Err:     fmt.Errorf("executing request %s: %w", op, err),
		}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &Error{
			Kind:       KindNetwork,
			HTTPStatus: resp.StatusCode,
			Op:         op,
			Message:    defaultMessage(KindNetwork),
			Err:        fmt.Errorf("reading response body: %w", readErr),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := classifyStatus(resp.StatusCode)
		return &Error{
			Kind:       kind,
			HTTPStatus: resp.StatusCode,
			Op:         op,
			Message:    messageFromBody(respBody, kind),
		}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &Error{
			Kind:       KindUnknown,
			HTTPStatus: resp.StatusCode,
			Op:         op,
			Message:    "The server sent an unexpected response.",
			Err:        fmt.Errorf("unmarshaling response from %s: %w", op, err),
		}
	}

	return nil
}

// messageFromBody extracts a readable message from an error payload,
// falling back to the default text for the kind.
func messageFromBody(body []byte, kind Kind) string {
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if len(eb.Errors) > 0 {
			fields := make([]string, 0, len(eb.Errors))
			for field := range eb.Errors {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			var parts []string
			for _, field := range fields {
				parts = append(parts, eb.Errors[field]...)
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if eb.Title != "" {
			return eb.Title
		}
	}
	return defaultMessage(kind)
}
