// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a joined path leaves its base directory.
var ErrPathEscapes = errors.New("path escapes base directory")

// SanitizeFilename strips directory components from a client supplied
// filename, so "../../etc/passwd" becomes "passwd".
func SanitizeFilename(filename string) (string, error) {
	base := filepath.Base(filename)
	switch base {
	case ".", "..", "", string(filepath.Separator):
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return base, nil
}

// SafeJoinPath joins components onto base and fails with ErrPathEscapes if
// the cleaned result is outside base. A result equal to base is allowed.
func SafeJoinPath(base string, components ...string) (string, error) {
	joined := filepath.Join(append([]string{base}, components...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	// The separator suffix keeps /uploads from matching /uploads-other.
	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", ErrPathEscapes
	}
	return joined, nil
}
