// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/olegiv/storefront-go/internal/model"
)

// MaxFileLen caps downloaded product files.
const MaxFileLen = 256 << 20 // 256MB

// DownloadFile fetches a product file. The fileURL comes from an
// order's product reference; relative paths resolve against the
// backend, absolute URLs (a CDN) are fetched as-is.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	if fileURL == "" {
		return nil, fmt.Errorf("%w: file URL is required", model.ErrValidation)
	}

	target := fileURL
	if strings.HasPrefix(fileURL, "/") {
		target = c.baseURL + fileURL
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	if sess := c.sessions.Get(ctx); sess.LoggedIn() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
		return nil, c.intercept401(ctx, fileURL, body)
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileLen))
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", ErrTransport, err)
	}
	return data, nil
}
