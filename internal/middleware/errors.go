// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/lumina/internal/model"
)

// APIError is the error envelope every JSON endpoint answers with.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

// APIErrorBody carries a machine readable code and a message for people.
type APIErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteAPIError writes an APIError with the given status.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIError{Error: APIErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// writeTooManyRequests answers 429 with Retry-After rounded up to whole
// seconds, never less than one.
func writeTooManyRequests(w http.ResponseWriter, retryAfter time.Duration, code, message string) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	WriteAPIError(w, http.StatusTooManyRequests, code, message, nil)
}

// SessionError answers session manager failures with the JSON envelope.
// Assign it to scs.SessionManager.ErrorFunc.
func SessionError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("session error", "error", err, "path", r.URL.Path, "category", model.EventCategoryAuth)
	WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}
