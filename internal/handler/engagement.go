// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/model"
)

// EngagementService is the reader interactions used by EngagementHandler.
type EngagementService interface {
	Clap(ctx context.Context, postID string) (int64, error)
	TrackView(ctx context.Context, postID, userAgent string) (bool, error)
	ToggleBookmark(ctx context.Context, userID, postID string) (bool, error)
	ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error)
	AddComment(ctx context.Context, userID, postID, body string) (model.Comment, error)
	ListBookmarks(ctx context.Context, userID string) ([]model.Post, error)
}

// EngagementHandler serves claps, views, bookmarks, follows and comments.
type EngagementHandler struct {
	engagement EngagementService
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(engagement EngagementService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

// Clap handles POST /api/posts/{id}/clap.
func (h *EngagementHandler) Clap(w http.ResponseWriter, r *http.Request) {
	claps, err := h.engagement.Clap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"claps": claps})
}

type postRef struct {
	PostID string `json:"postId"`
}

func (p postRef) valid(w http.ResponseWriter) bool {
	if strings.TrimSpace(p.PostID) == "" {
		writeBadRequest(w, "postId is required")
		return false
	}
	return true
}

// TrackView handles POST /api/posts/track-view. Bot views succeed without
// being counted.
func (h *EngagementHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	var req postRef
	if !decodeJSON(w, r, &req) || !req.valid(w) {
		return
	}

	if _, err := h.engagement.TrackView(r.Context(), req.PostID, r.UserAgent()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w)
}

// Bookmarks handles GET /api/bookmarks.
func (h *EngagementHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	posts, err := h.engagement.ListBookmarks(r.Context(), middleware.ViewerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// ToggleBookmark handles POST /api/bookmarks/toggle.
func (h *EngagementHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	var req postRef
	if !decodeJSON(w, r, &req) || !req.valid(w) {
		return
	}

	bookmarked, err := h.engagement.ToggleBookmark(r.Context(), middleware.ViewerID(r), req.PostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

// ToggleFollow handles POST /api/users/follow.
func (h *EngagementHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FollowingID string `json:"followingId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FollowingID) == "" {
		writeBadRequest(w, "followingId is required")
		return
	}

	following, err := h.engagement.ToggleFollow(r.Context(), middleware.ViewerID(r), req.FollowingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// CreateComment handles POST /api/comments/create.
func (h *EngagementHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID  string `json:"postId"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) || !(postRef{PostID: req.PostID}).valid(w) {
		return
	}

	c, err := h.engagement.AddComment(r.Context(), middleware.ViewerID(r), req.PostID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
