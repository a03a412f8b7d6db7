// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/service"
)

// maxTrendingLimit caps ?limit on the trending endpoint.
const maxTrendingLimit = 24

// PostService is the post operations used by PostsHandler.
type PostService interface {
	Listing(ctx context.Context) service.Listing
	ListByCategory(ctx context.Context, categories ...string) service.Listing
	ListSection(ctx context.Context, section string) (service.Listing, error)
	GetFeaturedPost(ctx context.Context) *model.Post
	Trending(ctx context.Context, limit int) ([]model.Post, error)
	GetPostBySlug(ctx context.Context, slug, viewerID string) *model.Post
	CreatePost(ctx context.Context, in service.CreatePostInput) (model.Post, error)
	DeletePost(ctx context.Context, userID, postID string) error
	AuthorStats(ctx context.Context, userID string) ([]model.PostStats, error)
}

// PostsHandler serves post listings, single posts and authoring.
type PostsHandler struct {
	posts PostService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(posts PostService) *PostsHandler {
	return &PostsHandler{posts: posts}
}

// List handles GET /api/posts. ?category=a,b narrows the listing.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := splitList(r.URL.Query().Get("category"))

	var l service.Listing
	if len(categories) > 0 {
		l = h.posts.ListByCategory(r.Context(), categories...)
	} else {
		l = h.posts.Listing(r.Context())
	}
	writeListing(w, l)
}

// Section handles GET /api/sections/{section}.
func (h *PostsHandler) Section(w http.ResponseWriter, r *http.Request) {
	l, err := h.posts.ListSection(r.Context(), chi.URLParam(r, "section"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeListing(w, l)
}

// Featured handles GET /api/posts/featured. The body is null when no post
// is featured.
func (h *PostsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	p := h.posts.GetFeaturedPost(r.Context())
	if p == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, p.Summary())
}

// Trending handles GET /api/posts/trending?limit=n.
func (h *PostsHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultTrendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendingLimit {
			writeBadRequest(w, "limit must be between 1 and "+strconv.Itoa(maxTrendingLimit))
			return
		}
		limit = n
	}

	posts, err := h.posts.Trending(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get handles GET /api/posts/{id} where the segment is the post slug. The
// parameter shares its name with the mutation routes on the same path.
// Premium bodies are withheld from viewers who may not read them.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)

	var viewerID string
	if viewer != nil {
		viewerID = viewer.ID
	}

	p := h.posts.GetPostBySlug(r.Context(), chi.URLParam(r, "id"), viewerID)
	if p == nil {
		writeNotFound(w, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p.ForViewer(viewer))
}

type createPostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	CoverImage string `json:"coverImage"`
	IsPremium  bool   `json:"isPremium"`
}

// Create handles POST /api/posts/create.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.posts.CreatePost(r.Context(), service.CreatePostInput{
		AuthorID:   middleware.ViewerID(r),
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		CoverImage: req.CoverImage,
		IsPremium:  req.IsPremium,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeletePost(r.Context(), middleware.ViewerID(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthorStats handles GET /api/author/stats.
func (h *PostsHandler) AuthorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.posts.AuthorStats(r.Context(), middleware.ViewerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeListing(w http.ResponseWriter, l service.Listing) {
	if l.Degraded {
		w.Header().Set(HeaderDegraded, l.Reason)
	}
	posts := l.Posts
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// splitList parses a comma separated query value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
