// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api implements the client for the remote storefront backend.
// The backend's contract is fixed and external: bearer-token auth,
// Mongo-style ids, {"msg": ...} error bodies. Every authenticated call
// attaches the session token; any 401 clears the session through the
// one registered invalidation point and is never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/storefront-go/internal/session"
)

// Request/transport limits.
const (
	DefaultTimeout = 30 * time.Second
	MaxResponseLen = 1 << 20 // 1MB cap on response bodies
	UserAgent      = "storefront-go/1.0"
)

// Client issues requests against the remote storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Store
	limiter    *rate.Limiter
	logger     *slog.Logger

	// onUnauthorized runs after the 401 interceptor has cleared the
	// session; the UI layer uses it to route to login.
	onUnauthorized func(ctx context.Context)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Sessions       *session.Store
	Timeout        time.Duration
	RateLimit      float64 // Requests per second to the backend (0 = unlimited)
	RateBurst      int
	Logger         *slog.Logger
	OnUnauthorized func(ctx context.Context)
}

// New creates a backend client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit)
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sessions:       opts.Sessions,
		limiter:        limiter,
		logger:         opts.Logger,
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// Session returns the current session as the store reports it.
func (c *Client) Session(ctx context.Context) interface{ LoggedIn() bool } {
	return c.sessions.Get(ctx)
}

// doJSON sends a JSON request and decodes a JSON response into out.
// A nil body sends no payload; a nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, path, out)
}

// do executes a prepared request: rate limit, bearer attach, 401
// interception, error mapping, JSON decode.
func (c *Client) do(req *http.Request, path string, out any) error {
	ctx := req.Context()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req.Header.Set("User-Agent", UserAgent)

	// Attach the bearer token when a session is present. Auth endpoints
	// are called logged-out and simply get no header.
	if sess := c.sessions.Get(ctx); sess.LoggedIn() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation means the caller navigated away; the
		// response is abandoned without touching shared state.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		return c.intercept401(ctx, path, data)
	}

	if resp.StatusCode >= 400 {
		return &Error{StatusCode: resp.StatusCode, Msg: extractMsg(data, resp.StatusCode)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// intercept401 is the single invalidation point for a dead token: clear
// the session first, then hand control to the login redirect hook.
func (c *Client) intercept401(ctx context.Context, path string, body []byte) error {
	if err := c.sessions.Clear(ctx); err != nil {
		c.logger.Error("clearing session after 401", "category", "auth", "error", err)
	}
	c.logger.Warn("authenticated call rejected, session cleared",
		"category", "auth", "path", path, "msg", extractMsg(body, http.StatusUnauthorized))

	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return ErrUnauthorized
}

// isAuthPath reports whether the path is a credential exchange, where a
// 401 means bad credentials rather than a dead session.
func isAuthPath(path string) bool {
	return path == "/api/auth/login" || path == "/api/auth/signup"
}

// extractMsg pulls the backend's "msg" field out of an error body.
func extractMsg(data []byte, statusCode int) string {
	var body struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Msg != "" {
		return body.Msg
	}
	return http.StatusText(statusCode)
}
