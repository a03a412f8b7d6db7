// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Image        sql.NullString `json:"image"`
	Bio          sql.NullString `json:"bio"`
	IsVerified   bool           `json:"is_verified"`
	Plan         string         `json:"plan"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Post struct {
	ID         string         `json:"id"`
	Slug       string         `json:"slug"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Category   string         `json:"category"`
	CoverImage sql.NullString `json:"cover_image"`
	Published  bool           `json:"published"`
	Featured   bool           `json:"featured"`
	IsPremium  bool           `json:"is_premium"`
	Claps      int64          `json:"claps"`
	Views      int64          `json:"views"`
	AuthorID   string         `json:"author_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PostWithAuthor is a post joined with its author row.
type PostWithAuthor struct {
	Post
	Author User
}

// PostDetail is a post joined with its author and the flags relative to one viewer.
type PostDetail struct {
	PostWithAuthor
	IsBookmarked      bool
	IsFollowingAuthor bool
}

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentWithAuthor is a comment joined with its author row.
type CommentWithAuthor struct {
	Comment
	Author User
}

type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewsletterSubscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	UserID    sql.NullString `json:"user_id"`
	Metadata  string         `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuthorPostStats is one row of an author's dashboard.
type AuthorPostStats struct {
	Post
	CommentCount  int64 `json:"comment_count"`
	BookmarkCount int64 `json:"bookmark_count"`
}
