// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// ExcerptLength is the number of characters kept from the body.
	ExcerptLength = 150
	// ExcerptMarker is appended to every derived excerpt.
	ExcerptMarker = "..."
	// WordsPerMinute is the reading speed used for read-time estimates.
	WordsPerMinute = 200
)

// avatarBaseURL serves deterministic generated avatars.
const avatarBaseURL = "https://avatar.vercel.sh/"

// PublishedAtLayout is the timestamp format of Post.PublishedAt.
const PublishedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Excerpt returns the first ExcerptLength characters of content followed by
// the marker. The marker is appended even when content is shorter.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) > ExcerptLength {
		r = r[:ExcerptLength]
	}
	return string(r) + ExcerptMarker
}

// ReadTime estimates reading time as "<N> min read", never below one minute.
func ReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// AvatarURL returns the generated avatar for a seed, usually an email.
func AvatarURL(seed string) string {
	return avatarBaseURL + url.PathEscape(strings.ToLower(strings.TrimSpace(seed)))
}

// ResolveAvatar prefers a stored image and falls back to the generated avatar.
func ResolveAvatar(image, email string) string {
	if strings.TrimSpace(image) != "" {
		return image
	}
	return AvatarURL(email)
}

// FormatPublishedAt renders t in UTC with millisecond precision.
func FormatPublishedAt(t time.Time) string {
	return t.UTC().Format(PublishedAtLayout)
}

var publishedAtLayouts = []string{
	time.RFC3339Nano,
	PublishedAtLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// ParsePublishedAt parses the timestamp formats accepted in post metadata.
func ParsePublishedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
