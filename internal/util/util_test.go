// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Calm & Clarity Guide", "calm-clarity-guide"},
		{"Überleben für Anfänger", "uberleben-fur-anfanger"},
		{"  spaced  out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER case 123", "upper-case-123"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"guide.pdf", "guide.pdf", false},
		{"/files/guide.pdf", "guide.pdf", false},
		{"../../../etc/passwd", "passwd", false},
		{"..", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSafeJoinPath(t *testing.T) {
	if _, err := SafeJoinPath("/downloads", "guide.pdf"); err != nil {
		t.Errorf("SafeJoinPath valid join: %v", err)
	}
	if _, err := SafeJoinPath("/downloads", "..", "etc", "passwd"); err == nil {
		t.Error("SafeJoinPath did not detect traversal")
	}
}
