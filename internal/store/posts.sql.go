// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const postColumns = `id, slug, title, content, category, cover_image, published, featured, is_premium, claps, views, author_id, created_at, updated_at`

var postWithAuthorColumns = []string{
	"p.id", "p.slug", "p.title", "p.content", "p.category", "p.cover_image",
	"p.published", "p.featured", "p.is_premium", "p.claps", "p.views",
	"p.author_id", "p.created_at", "p.updated_at",
	"u.id", "u.name", "u.email", "u.password_hash", "u.image", "u.bio",
	"u.is_verified", "u.plan", "u.created_at", "u.updated_at",
}

func postFields(p *Post) []any {
	return []any{
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Content,
		&p.Category,
		&p.CoverImage,
		&p.Published,
		&p.Featured,
		&p.IsPremium,
		&p.Claps,
		&p.Views,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func userFields(u *User) []any {
	return []any{
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Image,
		&u.Bio,
		&u.IsVerified,
		&u.Plan,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	err := row.Scan(postFields(&p)...)
	return p, err
}

func scanPostWithAuthor(row interface{ Scan(...any) error }, extra ...any) (PostWithAuthor, error) {
	var pa PostWithAuthor
	dest := append(postFields(&pa.Post), userFields(&pa.Author)...)
	dest = append(dest, extra...)
	err := row.Scan(dest...)
	return pa, err
}

const createPost = `INSERT INTO posts (
    id, slug, title, content, category, cover_image, published, featured, is_premium, claps, views, author_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`

type CreatePostParams struct {
	ID         string
	Slug       string
	Title      string
	Content    string
	Category   string
	CoverImage sql.NullString
	Published  bool
	Featured   bool
	IsPremium  bool
	AuthorID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	_, err := q.db.ExecContext(ctx, createPost,
		arg.ID,
		arg.Slug,
		arg.Title,
		arg.Content,
		arg.Category,
		arg.CoverImage,
		arg.Published,
		arg.Featured,
		arg.IsPremium,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	return q.GetPostByID(ctx, arg.ID)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const slugExists = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ?)`

func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, slugExists, slug).Scan(&exists)
	return exists, err
}

const getPostDetailBySlug = `SELECT
    p.id, p.slug, p.title, p.content, p.category, p.cover_image,
    p.published, p.featured, p.is_premium, p.claps, p.views,
    p.author_id, p.created_at, p.updated_at,
    u.id, u.name, u.email, u.password_hash, u.image, u.bio,
    u.is_verified, u.plan, u.created_at, u.updated_at,
    EXISTS(SELECT 1 FROM bookmarks b WHERE b.post_id = p.id AND b.user_id = ?) AS is_bookmarked,
    EXISTS(SELECT 1 FROM follows f WHERE f.following_id = p.author_id AND f.follower_id = ?) AS is_following
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.slug = ?`

type GetPostDetailParams struct {
	Slug     string
	ViewerID string
}

// GetPostDetailBySlug loads a post with its author and the bookmark and
// follow flags for ViewerID. An empty ViewerID matches no rows, so both flags
// come back false.
func (q *Queries) GetPostDetailBySlug(ctx context.Context, arg GetPostDetailParams) (PostDetail, error) {
	var d PostDetail
	row := q.db.QueryRowContext(ctx, getPostDetailBySlug, arg.ViewerID, arg.ViewerID, arg.Slug)
	pa, err := scanPostWithAuthor(row, &d.IsBookmarked, &d.IsFollowingAuthor)
	if err != nil {
		return PostDetail{}, err
	}
	d.PostWithAuthor = pa
	return d, nil
}

// Post listing orders.
const (
	OrderNewest   = "newest"
	OrderTrending = "trending"
)

// ListPostsFilter narrows ListPosts. The zero value lists every published
// post, newest first.
type ListPostsFilter struct {
	Categories    []string
	AuthorID      string
	IncludeDrafts bool
	Order         string
	Limit         uint64
}

// ListPosts lists posts joined with their authors.
func (q *Queries) ListPosts(ctx context.Context, f ListPostsFilter) ([]PostWithAuthor, error) {
	qb := sq.Select(postWithAuthorColumns...).
		From("posts p").
		Join("users u ON u.id = p.author_id").
		PlaceholderFormat(sq.Question)

	if !f.IncludeDrafts {
		qb = qb.Where(sq.Eq{"p.published": true})
	}
	if len(f.Categories) > 0 {
		qb = qb.Where(sq.Eq{"p.category": f.Categories})
	}
	if f.AuthorID != "" {
		qb = qb.Where(sq.Eq{"p.author_id": f.AuthorID})
	}

	switch f.Order {
	case OrderTrending:
		qb = qb.OrderBy("(p.views + p.claps) DESC", "p.created_at DESC")
	default:
		qb = qb.OrderBy("p.created_at DESC")
	}

	if f.Limit > 0 {
		qb = qb.Limit(f.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building post listing: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PostWithAuthor
	for rows.Next() {
		pa, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, pa)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePost = `DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const incrementClaps = `UPDATE posts SET claps = claps + 1 WHERE id = ?`

const getClaps = `SELECT claps FROM posts WHERE id = ?`

// IncrementClaps adds one clap and returns the new total. It returns
// sql.ErrNoRows when the post does not exist.
func (q *Queries) IncrementClaps(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, incrementClaps, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, sql.ErrNoRows
	}
	var claps int64
	err = q.db.QueryRowContext(ctx, getClaps, id).Scan(&claps)
	return claps, err
}

const incrementViews = `UPDATE posts SET views = views + 1 WHERE id = ?`

// IncrementViews adds one view. It returns sql.ErrNoRows when the post does
// not exist.
func (q *Queries) IncrementViews(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, incrementViews, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const listAuthorPostStats = `SELECT
    p.id, p.slug, p.title, p.content, p.category, p.cover_image,
    p.published, p.featured, p.is_premium, p.claps, p.views,
    p.author_id, p.created_at, p.updated_at,
    (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
    (SELECT COUNT(*) FROM bookmarks b WHERE b.post_id = p.id) AS bookmark_count
FROM posts p
WHERE p.author_id = ?
ORDER BY p.created_at DESC`

func (q *Queries) ListAuthorPostStats(ctx context.Context, authorID string) ([]AuthorPostStats, error) {
	rows, err := q.db.QueryContext(ctx, listAuthorPostStats, authorID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AuthorPostStats
	for rows.Next() {
		var s AuthorPostStats
		dest := append(postFields(&s.Post), &s.CommentCount, &s.BookmarkCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
