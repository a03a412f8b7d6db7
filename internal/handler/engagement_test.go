// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/service"
)

type fakeEngagement struct {
	claps      int64
	userAgent  string
	bookmarked map[string]bool
	following  map[string]bool
	comment    model.Comment
	err        error
}

func newFakeEngagement() *fakeEngagement {
	return &fakeEngagement{bookmarked: map[string]bool{}, following: map[string]bool{}}
}

func (f *fakeEngagement) Clap(_ context.Context, postID string) (int64, error) {
	if postID != "p1" {
		return 0, service.ErrNotFound
	}
	f.claps++
	return f.claps, nil
}

func (f *fakeEngagement) TrackView(_ context.Context, _ string, userAgent string) (bool, error) {
	f.userAgent = userAgent
	return !service.IsBot(userAgent), f.err
}

func (f *fakeEngagement) ToggleBookmark(_ context.Context, userID, postID string) (bool, error) {
	key := userID + "/" + postID
	f.bookmarked[key] = !f.bookmarked[key]
	return f.bookmarked[key], f.err
}

func (f *fakeEngagement) ToggleFollow(_ context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, service.ErrSelfFollow
	}
	key := followerID + "/" + followingID
	f.following[key] = !f.following[key]
	return f.following[key], nil
}

func (f *fakeEngagement) AddComment(_ context.Context, userID, _ string, body string) (model.Comment, error) {
	if body == "" {
		return model.Comment{}, service.ErrInvalidInput
	}
	f.comment = model.Comment{ID: "c1", Content: body, Author: model.Author{ID: userID}}
	return f.comment, nil
}

func (f *fakeEngagement) ListBookmarks(context.Context, string) ([]model.Post, error) {
	return nil, nil
}

func engagementRouter(h *EngagementHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/posts/{id}/clap", h.Clap)
	r.Post("/api/posts/track-view", h.TrackView)
	r.Get("/api/bookmarks", h.Bookmarks)
	r.Post("/api/bookmarks/toggle", h.ToggleBookmark)
	r.Post("/api/users/follow", h.ToggleFollow)
	r.Post("/api/comments/create", h.CreateComment)
	return r
}

func TestClap(t *testing.T) {
	router := engagementRouter(NewEngagementHandler(newFakeEngagement()))

	serve(router, newRequest(http.MethodPost, "/api/posts/p1/clap", "", nil))
	rr := serve(router, newRequest(http.MethodPost, "/api/posts/p1/clap", "", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), decodeBody[map[string]int64](t, rr)["claps"])

	rr = serve(router, newRequest(http.MethodPost, "/api/posts/static-post/clap", "", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrackView(t *testing.T) {
	eng := newFakeEngagement()
	router := engagementRouter(NewEngagementHandler(eng))

	req := newRequest(http.MethodPost, "/api/posts/track-view", `{"postId":"p1"}`, nil)
	req.Header.Set("User-Agent", "Googlebot/2.1 (+http://www.google.com/bot.html)")
	rr := serve(router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeBody[map[string]bool](t, rr)["success"])
	assert.Contains(t, eng.userAgent, "Googlebot")

	rr = serve(router, newRequest(http.MethodPost, "/api/posts/track-view", `{}`, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBookmarks(t *testing.T) {
	rr := serve(engagementRouter(NewEngagementHandler(newFakeEngagement())), newRequest(http.MethodGet, "/api/bookmarks", "", reader))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestToggleBookmark(t *testing.T) {
	router := engagementRouter(NewEngagementHandler(newFakeEngagement()))

	for _, want := range []bool{true, false, true} {
		rr := serve(router, newRequest(http.MethodPost, "/api/bookmarks/toggle", `{"postId":"p1"}`, reader))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, want, decodeBody[map[string]bool](t, rr)["bookmarked"])
	}
}

func TestToggleFollow(t *testing.T) {
	router := engagementRouter(NewEngagementHandler(newFakeEngagement()))

	rr := serve(router, newRequest(http.MethodPost, "/api/users/follow", `{"followingId":"author"}`, reader))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeBody[map[string]bool](t, rr)["following"])

	rr = serve(router, newRequest(http.MethodPost, "/api/users/follow", `{"followingId":"u1"}`, reader))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, newRequest(http.MethodPost, "/api/users/follow", `{"followingId":" "}`, reader))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateComment(t *testing.T) {
	router := engagementRouter(NewEngagementHandler(newFakeEngagement()))

	rr := serve(router, newRequest(http.MethodPost, "/api/comments/create", `{"postId":"p1","content":"Nice read"}`, reader))
	require.Equal(t, http.StatusCreated, rr.Code)
	got := decodeBody[model.Comment](t, rr)
	assert.Equal(t, "Nice read", got.Content)
	assert.Equal(t, "u1", got.Author.ID)

	rr = serve(router, newRequest(http.MethodPost, "/api/comments/create", `{"postId":"p1","content":""}`, reader))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, newRequest(http.MethodPost, "/api/comments/create", `{"content":"orphan"}`, reader))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
