// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title", "Designing for Calm Interfaces", "designing-for-calm-interfaces"},
		{"parentheses", "Why I Quit Social Media (And What Happened Next)", "why-i-quit-social-media-and-what-happened-next"},
		{"numbers kept", "10 Lessons from 5 Years of Remote Work", "10-lessons-from-5-years-of-remote-work"},
		{"version and apostrophe", "Go 1.25: What's New?", "go-1-25-what-s-new"},
		{"accents stripped", "The Café Culture of São Paulo", "the-cafe-culture-of-sao-paulo"},
		{"ampersand and umlauts", "Notes on Zürich & Kraków", "notes-on-zurich-krakow"},
		{"every letter accented", "Ünïcödé Ëvërÿwhérë", "unicode-everywhere"},
		{"cyrillic transliterated", "Привет, мир: заметки", "privet-mir-zametki"},
		{"decorated draft title", "  ~Draft~  ", "draft"},
		{"shouting", "BREAKING: Tech Layoffs", "breaking-tech-layoffs"},
		{"punctuation only", "?!...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugifyOutputIsValid(t *testing.T) {
	for _, title := range []string{
		"A Quiet Guide to Deep Work",
		"Fünf Dinge über Kaffee",
		"Review -- The New Keyboard",
		"---",
	} {
		got := Slugify(title)
		if got != "" && !IsValidSlug(got) {
			t.Errorf("Slugify(%q) = %q, which IsValidSlug rejects", title, got)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"designing-for-calm-interfaces", true},
		{"fresh-take-1a2b3c", true},
		{"2025", true},
		{"", false},
		{"Fresh-Take", false},
		{"fresh_take", false},
		{"fresh take", false},
		{"café", false},
		{"fresh--take", false},
		{"-draft", false},
		{"draft-", false},
		{"../secrets", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}
