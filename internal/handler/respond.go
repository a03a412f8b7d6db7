// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the Lumina JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/lumina/internal/imaging"
	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/service"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// HeaderDegraded is set on listings built without the database.
const HeaderDegraded = "X-Lumina-Degraded"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes {"success": true}.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, "bad_request", message, nil)
}

func writeNotFound(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusNotFound, "not_found", message, nil)
}

// decodeJSON reads a JSON body into dst. It writes a 400 and returns false
// when the body is missing, too large or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
		case errors.Is(err, io.EOF):
			writeBadRequest(w, "Request body is required")
		default:
			writeBadRequest(w, "Invalid JSON body")
		}
		return false
	}
	return true
}

// writeServiceError maps a service error to a JSON error response. Unknown
// errors are logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeNotFound(w, "Not found")
	case errors.Is(err, service.ErrForbidden):
		middleware.WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not have access to this resource", nil)
	case errors.Is(err, service.ErrSelfFollow):
		writeBadRequest(w, service.ErrSelfFollow.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeBadRequest(w, inputMessage(err))
	case errors.Is(err, service.ErrAlreadyExists):
		middleware.WriteAPIError(w, http.StatusConflict, "conflict", inputMessage(err), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, imaging.ErrTooLarge):
		middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "payload_too_large", imaging.ErrTooLarge.Error(), nil)
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		middleware.WriteAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", imaging.ErrUnsupportedFormat.Error(), nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

// inputMessage returns the detail after the sentinel prefix, e.g.
// "invalid input: title is required" becomes "title is required".
func inputMessage(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, ": "); ok {
		return detail
	}
	return msg
}
