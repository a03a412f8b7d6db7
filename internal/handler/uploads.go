// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lumina/internal/imaging"
	"github.com/olegiv/lumina/internal/middleware"
)

// multipartOverhead leaves room for form boundaries and headers around the
// file part.
const multipartOverhead = 64 << 10

// ImageProcessor stores uploaded images.
type ImageProcessor interface {
	Process(r io.Reader, kind imaging.Kind, filename string) (*imaging.Result, error)
}

// UploadsHandler serves cover and avatar uploads.
type UploadsHandler struct {
	images ImageProcessor
}

// NewUploadsHandler creates a new UploadsHandler.
func NewUploadsHandler(images ImageProcessor) *UploadsHandler {
	return &UploadsHandler{images: images}
}

// Upload handles POST /api/uploads/{kind} with a multipart "file" field.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	kind, ok := imaging.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeNotFound(w, "Unknown upload kind")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, imaging.ErrTooLarge)
			return
		}
		writeBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	res, err := h.images.Process(file, kind, header.Filename)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("image uploaded",
		"kind", kind,
		"url", res.URL,
		"size", res.Size,
		"user_id", middleware.ViewerID(r),
	)
	writeJSON(w, http.StatusCreated, res)
}
