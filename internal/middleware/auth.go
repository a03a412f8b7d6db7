// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for viewer identity,
// rate limiting, and request hardening.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/service"
	"github.com/olegiv/lumina/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyViewer holds the signed-in model.Viewer.
const ContextKeyViewer ContextKey = "viewer"

// ViewerLoader resolves a session user ID to the current viewer.
type ViewerLoader interface {
	Viewer(ctx context.Context, userID string) (model.Viewer, error)
}

// LoadViewer puts the signed-in viewer into the request context when the
// session carries a user ID. Requests without a session pass through
// anonymously. A session pointing at a deleted user is cleared.
func LoadViewer(sm *scs.SessionManager, accounts ViewerLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := session.UserID(r.Context(), sm)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := accounts.Viewer(r.Context(), userID)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					sm.Remove(r.Context(), session.KeyUserID)
				} else {
					slog.Warn("failed to load viewer", "user_id", userID, "error", err, "category", model.EventCategoryAuth)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

// RequireUser rejects anonymous requests with a JSON 401.
// It must run after LoadViewer.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetViewer(r) == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Sign in required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithViewer returns a copy of ctx carrying v.
func WithViewer(ctx context.Context, v model.Viewer) context.Context {
	return context.WithValue(ctx, ContextKeyViewer, v)
}

// GetViewer retrieves the signed-in viewer from the request context.
// Returns nil for anonymous requests.
func GetViewer(r *http.Request) *model.Viewer {
	v, ok := r.Context().Value(ContextKeyViewer).(model.Viewer)
	if !ok {
		return nil
	}
	return &v
}

// ViewerID returns the signed-in user's ID, or "" for anonymous requests.
func ViewerID(r *http.Request) string {
	if v := GetViewer(r); v != nil {
		return v.ID
	}
	return ""
}
