// Package backend is the typed client for the marketplace backend API.
package backend

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

	"github.com/go-playground/validator/v10"
)

// Observer receives one callback per backend call, used for metrics.
type Observer interface {
	ObserveBackendCall(method, route string, status int, elapsed time.Duration)
}

// Client wraps interactions with the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialProvider
	logger     *slog.Logger
	observer   Observer
	validate   *validator.Validate
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a per-call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a new client. creds is consulted on every request.
func NewClient(baseURL string, creds CredentialProvider, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if creds == nil {
		return nil, errors.New("backend: credential provider required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:    creds,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type call struct {
	method string
	route  string
	path   string
	query  url.Values
	header http.Header
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, cl call) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", cl.route, err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range cl.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	token.SetAuthHeader(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, 0, start)
		c.logger.Warn("backend call failed", slog.String("method", cl.method), slog.String("route", cl.route), slog.Any("error", err))
		return &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(cl, resp.StatusCode, start)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: cl.method, Path: cl.path, Err: err}
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Method:  cl.method,
			Path:    cl.path,
			Status:  resp.StatusCode,
			Message: errorMessage(payload),
		}
		c.logger.Debug("backend rejected call", slog.String("route", cl.route), slog.Int("status", resp.StatusCode), slog.String("detail", apiErr.Message))
		return apiErr
	}
	if cl.out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, cl.out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.route, err)
	}
	return nil
}

func (c *Client) observe(cl call, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(cl.method, cl.route, status, time.Since(start))
}

func pathID(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

func pageQuery(q url.Values, skip, limit int) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if skip > 0 {
		q.Set("skip", fmt.Sprint(skip))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
