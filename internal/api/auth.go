// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/olegiv/storefront-go/internal/model"
)

// loginRequest omits the email field entirely for admin logins: admin
// credentials are not email-keyed.
type loginRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a session and persists it. Pass an
// empty email to log in as admin; students must supply one.
func (c *Client) Login(ctx context.Context, email, password string) (model.Session, error) {
	if email != "" {
		if err := model.ValidateEmail(email); err != nil {
			return model.Session{}, err
		}
	}
	if password == "" {
		return model.Session{}, fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	var sess model.Session
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &sess)
	if err != nil {
		return model.Session{}, err
	}

	if err := c.sessions.Set(ctx, sess.Token, sess.Role); err != nil {
		return model.Session{}, fmt.Errorf("persisting session: %w", err)
	}
	return sess, nil
}

// Signup registers a student account and persists the issued session.
func (c *Client) Signup(ctx context.Context, email, password string) (model.Session, error) {
	if err := model.ValidateEmail(email); err != nil {
		return model.Session{}, err
	}
	if err := model.ValidatePassword(password); err != nil {
		return model.Session{}, err
	}

	var sess model.Session
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup",
		signupRequest{Email: email, Password: password, Role: model.RoleStudent}, &sess)
	if err != nil {
		return model.Session{}, err
	}

	if err := c.sessions.Set(ctx, sess.Token, sess.Role); err != nil {
		return model.Session{}, fmt.Errorf("persisting session: %w", err)
	}
	return sess, nil
}

// ChangePassword updates the authenticated account's password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	if err := model.ValidatePassword(newPassword); err != nil {
		return "", err
	}

	var resp struct {
		Msg string `json:"msg"`
	}
	err := c.doJSON(ctx, http.MethodPatch, "/api/auth/password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Msg, nil
}

// Logout clears the persisted session. Purely local: the backend does
// not track token revocation.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}
