// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// User roles as issued by the backend on login/signup.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Session is the client's authentication state: an opaque bearer token
// and the role the backend attached to it. A session without a token is
// logged out no matter what role value is still lying around.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// LoggedIn reports whether the session carries a token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// IsAdmin returns true only for an authenticated admin session.
func (s Session) IsAdmin() bool {
	return s.LoggedIn() && s.Role == RoleAdmin
}
