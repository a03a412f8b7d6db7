// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"strings"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/util"
)

func authorFromUser(u store.User) model.Author {
	return model.Author{
		ID:         u.ID,
		Name:       u.Name,
		Avatar:     model.ResolveAvatar(util.StringFromNull(u.Image), u.Email),
		Bio:        util.StringFromNull(u.Bio),
		IsVerified: u.IsVerified,
	}
}

func viewerFromUser(u store.User) model.Viewer {
	return model.Viewer{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Image:      model.ResolveAvatar(util.StringFromNull(u.Image), u.Email),
		Bio:        util.StringFromNull(u.Bio),
		Plan:       u.Plan,
		IsVerified: u.IsVerified,
	}
}

// postFromRow normalizes a database post into the shared view model.
func postFromRow(row store.PostWithAuthor) model.Post {
	cover := strings.TrimSpace(util.StringFromNull(row.CoverImage))
	if cover == "" {
		cover = model.DefaultCoverImage
	}
	category := row.Category
	if category == "" {
		category = model.DefaultCategory
	}

	return model.Post{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Excerpt:     model.Excerpt(row.Content),
		Content:     row.Content,
		CoverImage:  cover,
		Category:    category,
		Featured:    row.Featured,
		Author:      authorFromUser(row.Author),
		Claps:       row.Claps,
		Views:       row.Views,
		IsPremium:   row.IsPremium,
		Comments:    []model.Comment{},
		ReadTime:    model.ReadTime(row.Content),
		PublishedAt: model.FormatPublishedAt(row.CreatedAt),
		Source:      model.SourceDatabase,
	}
}

func commentFromRow(row store.CommentWithAuthor) model.Comment {
	return model.Comment{
		ID:        row.ID,
		Content:   row.Content,
		CreatedAt: model.FormatPublishedAt(row.CreatedAt),
		Author:    authorFromUser(row.Author),
	}
}

func statsFromRow(row store.AuthorPostStats) model.PostStats {
	return model.PostStats{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Published:   row.Published,
		Claps:       row.Claps,
		Views:       row.Views,
		Comments:    row.CommentCount,
		Bookmarks:   row.BookmarkCount,
		PublishedAt: model.FormatPublishedAt(row.CreatedAt),
		IsPremium:   row.IsPremium,
		Category:    row.Category,
	}
}

func summaries(rows []store.PostWithAuthor) []model.Post {
	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, postFromRow(row).Summary())
	}
	return posts
}
