// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createComment = `INSERT INTO comments (id, content, post_id, author_id, created_at) VALUES (?, ?, ?, ?, ?)`

type CreateCommentParams struct {
	ID        string
	Content   string
	PostID    string
	AuthorID  string
	CreatedAt time.Time
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (CommentWithAuthor, error) {
	_, err := q.db.ExecContext(ctx, createComment, arg.ID, arg.Content, arg.PostID, arg.AuthorID, arg.CreatedAt)
	if err != nil {
		return CommentWithAuthor{}, err
	}
	return q.GetCommentWithAuthor(ctx, arg.ID)
}

const commentWithAuthorSelect = `SELECT
    c.id, c.content, c.post_id, c.author_id, c.created_at,
    u.id, u.name, u.email, u.password_hash, u.image, u.bio,
    u.is_verified, u.plan, u.created_at, u.updated_at
FROM comments c
JOIN users u ON u.id = c.author_id`

func scanCommentWithAuthor(row interface{ Scan(...any) error }) (CommentWithAuthor, error) {
	var c CommentWithAuthor
	dest := []any{&c.ID, &c.Content, &c.PostID, &c.AuthorID, &c.CreatedAt}
	dest = append(dest, userFields(&c.Author)...)
	err := row.Scan(dest...)
	return c, err
}

const getCommentWithAuthor = commentWithAuthorSelect + ` WHERE c.id = ?`

func (q *Queries) GetCommentWithAuthor(ctx context.Context, id string) (CommentWithAuthor, error) {
	return scanCommentWithAuthor(q.db.QueryRowContext(ctx, getCommentWithAuthor, id))
}

const listCommentsForPost = commentWithAuthorSelect + ` WHERE c.post_id = ? ORDER BY c.created_at DESC`

// ListCommentsForPost returns a post's comments, newest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID string) ([]CommentWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CommentWithAuthor
	for rows.Next() {
		c, err := scanCommentWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
