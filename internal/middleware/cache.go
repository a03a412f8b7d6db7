// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// UploadCache serves stored uploads with long-lived cache headers. Every
// upload lives under a fresh UUID directory, so its URL never changes
// content and can be marked immutable. Directory paths are answered with a
// JSON 404 instead of a file server listing.
func UploadCache(maxAge int) func(http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(maxAge) + ", immutable"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				WriteAPIError(w, http.StatusNotFound, "not_found", "Not found", nil)
				return
			}
			w.Header().Set("Cache-Control", cacheControl)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	}
}
