// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
)

// Subscriber records newsletter subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, email string) (bool, error)
}

// NewsletterHandler serves newsletter sign-ups.
type NewsletterHandler struct {
	newsletter Subscriber
}

// NewNewsletterHandler creates a new NewsletterHandler.
func NewNewsletterHandler(newsletter Subscriber) *NewsletterHandler {
	return &NewsletterHandler{newsletter: newsletter}
}

// Subscribe handles POST /api/newsletter/subscribe. Subscribing twice
// succeeds.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.newsletter.Subscribe(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w)
}
