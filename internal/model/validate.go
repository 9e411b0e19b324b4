// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrValidation marks errors caught before any network call. Callers can
// surface them inline and let the user correct the input locally.
var ErrValidation = errors.New("validation")

// ValidateEmail rejects empty or malformed email addresses. Both the
// free and the paid checkout paths require an email for receipt and
// access identification.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// ValidatePassword enforces a minimal password length on signup and
// password change. The backend applies its own policy on top.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}
