// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeFilename extracts only the base filename, removing any
// directory components. Filenames arrive from the backend (fileUrl
// paths), so traversal sequences like "../../../etc/passwd" must never
// reach the filesystem.
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filename)
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// SafeJoinPath joins path components under a base directory and
// verifies the result stays inside it. Used when saving purchased
// files to the download directory.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	fullPath := filepath.Join(append([]string{basePath}, components...)...)

	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absTarget, err := filepath.Abs(filepath.Clean(fullPath))
	if err != nil {
		return "", fmt.Errorf("invalid target path: %w", err)
	}

	// Trailing separator prevents /downloads-evil matching /downloads.
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: path escapes base directory")
	}
	return fullPath, nil
}
