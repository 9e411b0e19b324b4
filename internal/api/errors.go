// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client's failure taxonomy. Validation errors
// never reach the network; these cover everything after a request leaves.
var (
	// ErrUnauthorized is returned after the 401 interceptor has cleared
	// the session. The call must not be retried with the same token.
	ErrUnauthorized = errors.New("unauthorized: session cleared")

	// ErrTransport marks requests that failed to complete at all. The
	// user may retry manually; the client does not retry on its own.
	ErrTransport = errors.New("request failed")
)

// Error is a non-2xx backend response carrying the backend's message.
type Error struct {
	StatusCode int
	Msg        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Msg)
}

// IsNotFound reports whether the error is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
